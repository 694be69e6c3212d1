package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const paidRoute = "/v1/chat/completions"

func newMetricsRouter(paidStatus *int, settled *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PrometheusMiddleware(paidRoute))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST(paidRoute, func(c *gin.Context) {
		if *settled {
			c.Header(settlementHeader, "eyJzdWNjZXNzIjp0cnVlfQ==")
		}
		c.String(*paidStatus, `{"choices":[]}`)
	})
	return router
}

func TestPrometheusMiddleware_RouteLabels(t *testing.T) {
	status, settled := http.StatusOK, false
	router := newMetricsRouter(&status, &settled)

	health := APIRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200", "false")
	unmatched := APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404", "false")
	beforeHealth, beforeUnmatched := testutil.ToFloat64(health), testutil.ToFloat64(unmatched)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	assert.Equal(t, beforeHealth+1, testutil.ToFloat64(health))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}

func TestPrometheusMiddleware_PaidResults(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		settled bool
		result  string
	}{
		{"结算后交付", http.StatusOK, true, ResultDelivered},
		{"需要支付", http.StatusPaymentRequired, false, ResultPaymentRequired},
		{"校验失败", http.StatusBadRequest, false, ResultRejected},
		{"上游故障", http.StatusInternalServerError, false, ResultFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, settled := tc.status, tc.settled
			router := newMetricsRouter(&status, &settled)

			counter := PaidRequestsTotal.WithLabelValues(paidRoute, tc.result)
			total := APIRequestsTotal.WithLabelValues(http.MethodPost, paidRoute, strconv.Itoa(tc.status), "true")
			before, beforeTotal := testutil.ToFloat64(counter), testutil.ToFloat64(total)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, paidRoute, strings.NewReader("{}")))

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
			assert.Equal(t, beforeTotal+1, testutil.ToFloat64(total))
		})
	}
}

func TestPaidResult(t *testing.T) {
	assert.Equal(t, ResultDelivered, PaidResult(http.StatusOK, true))
	assert.Equal(t, ResultUnsettled, PaidResult(http.StatusOK, false))
	assert.Equal(t, ResultPaymentRequired, PaidResult(http.StatusPaymentRequired, true))
	assert.Equal(t, ResultRejected, PaidResult(http.StatusTooManyRequests, false))
	assert.Equal(t, ResultFailed, PaidResult(http.StatusBadGateway, false))
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(PaymentOutcomesTotal.WithLabelValues(OutcomeSettled))
	RecordPaymentOutcome(OutcomeSettled)
	assert.Equal(t, before+1, testutil.ToFloat64(PaymentOutcomesTotal.WithLabelValues(OutcomeSettled)))

	RecordTokens("model-a", 10, 0)
	assert.Equal(t, 10.0, testutil.ToFloat64(UpstreamTokensTotal.WithLabelValues("model-a", "prompt")))
	assert.Equal(t, 0.0, testutil.ToFloat64(UpstreamTokensTotal.WithLabelValues("model-a", "completion")))
}
