package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_PropagatesCallerID(t *testing.T) {
	var ginID, ctxID string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		ginID = GetRequestIDFromGin(c)
		ctxID = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", ginID)
	assert.Equal(t, "req-123", ctxID)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestRequestID_DoesNotGenerate(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Empty(t, GetRequestIDFromGin(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get(HeaderRequestID))
}

func TestRequireRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handled := false

	r := gin.New()
	r.Use(RequestID())
	r.POST("/paid", RequireRequestID(zap.New(core)), func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/paid", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, handled)

	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, common.KindMissingCorrelationID, body.Error)
	assert.Equal(t, MessageRequestIDRequired, body.Message)
	assert.Empty(t, body.RequestID)
	assert.NotEmpty(t, body.Timestamp)
	assert.Equal(t, 1, logs.FilterMessage("Missing request ID").Len())

	req := httptest.NewRequest(http.MethodPost, "/paid", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handled)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2})
	defer rl.Stop()

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{RequestsPerSecond: 5, IdleTimeout: time.Minute})
	defer rl.Stop()

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }
	rl.Allow("a")

	now = now.Add(30 * time.Second)
	rl.Allow("b")

	now = now.Add(45 * time.Second)
	rl.evictIdle()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{})
	defer rl.Stop()

	assert.False(t, rl.Enabled())
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.Equal(t, 0, rl.ActiveClients())
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	defer rl.Stop()

	r := gin.New()
	r.POST("/paid", RateLimitMiddleware(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/paid", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/paid", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, common.KindRateLimited, body.Error)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
