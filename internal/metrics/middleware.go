package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	unmatchedRoute = "unmatched"
	// settlementHeader 结算成功时网关写入的响应头
	settlementHeader = "X-PAYMENT-RESPONSE"
)

// PrometheusMiddleware 请求指标中间件
// paidRoutes 为付费路由模板（如 /v1/chat/completions），这些路由额外按支付结果计数
func PrometheusMiddleware(paidRoutes ...string) gin.HandlerFunc {
	paid := make(map[string]struct{}, len(paidRoutes))
	for _, r := range paidRoutes {
		paid[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		_, isPaid := paid[route]
		paidLabel := strconv.FormatBool(isPaid)
		status := c.Writer.Status()

		APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status), paidLabel).Inc()
		APIRequestDuration.WithLabelValues(route, paidLabel).Observe(time.Since(start).Seconds())

		if !isPaid {
			return
		}
		result := PaidResult(status, c.Writer.Header().Get(settlementHeader) != "")
		PaidRequestsTotal.WithLabelValues(route, result).Inc()
		if result == ResultDelivered && c.Writer.Size() > 0 {
			PaidResponseBytes.WithLabelValues(route).Observe(float64(c.Writer.Size()))
		}
	}
}

// PaidResult 按状态码与结算头归类付费请求结果
func PaidResult(status int, settled bool) string {
	switch {
	case status == http.StatusPaymentRequired:
		return ResultPaymentRequired
	case status >= http.StatusInternalServerError:
		return ResultFailed
	case status >= http.StatusBadRequest:
		return ResultRejected
	case settled:
		return ResultDelivered
	default:
		return ResultUnsettled
	}
}
