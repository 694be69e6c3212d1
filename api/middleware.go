package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// chatCompletionsPath 付费路由，无论状态码都记录访问日志
const chatCompletionsPath = "/v1/chat/completions"

// AccessLog 请求日志中间件
// 只记录失败请求与付费路由：5xx 为 error，4xx 为 warn，其余为 info
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		if status < 400 && !strings.Contains(c.Request.URL.Path, chatCompletionsPath) {
			return
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		requestID := common.RequestID(c)
		if requestID == "" {
			requestID = "missing"
		}

		url := c.Request.URL.RequestURI()
		log.Log(level, fmt.Sprintf("%s %s %d", c.Request.Method, url, status),
			zap.String("method", c.Request.Method),
			zap.String("url", url),
			zap.Int("status", status),
			zap.Int64("duration", time.Since(start).Milliseconds()),
			zap.String("requestId", requestID),
		)
	}
}

// CORS 跨域中间件，origins 为空时允许任意来源
func CORS(origins []string) gin.HandlerFunc {
	allowedHeaders := strings.Join([]string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Authorization",
		"Accept", "Origin", "Cache-Control", "X-Requested-With",
		"X-Request-ID", payment.HeaderPayment,
		"X-Transaction-Hash", "X-Payment-Network", "X-Payer-Address",
	}, ", ")
	allowedMethods := strings.Join([]string{"POST", "OPTIONS", "GET"}, ", ")
	exposedHeaders := strings.Join([]string{payment.HeaderPaymentResponse, "X-Request-ID"}, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()

		switch {
		case len(origins) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && stringInSlice(origin, origins):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}

		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Allow-Methods", allowedMethods)
		h.Set("Access-Control-Expose-Headers", exposedHeaders)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
