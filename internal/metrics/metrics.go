package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "route", "status", "paid"},
	)

	// APIRequestDuration API 请求延迟（秒），付费路由包含上游与结算耗时
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paygate_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route", "paid"},
	)

	// PaidRequestsTotal 付费路由请求结果
	PaidRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_paid_requests_total",
			Help: "付费路由请求结果计数",
		},
		[]string{"route", "result"},
	)

	// PaidResponseBytes 已结算并交付的响应体大小（字节）
	PaidResponseBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paygate_paid_response_bytes",
			Help:    "已交付付费响应体大小分布",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"route"},
	)
)

// 付费路由结果
const (
	ResultDelivered       = "delivered"        // 已结算并交付
	ResultPaymentRequired = "payment_required" // 402 质询或支付失败
	ResultRejected        = "rejected"         // 其他 4xx，未进入支付环节
	ResultFailed          = "failed"           // 5xx
	ResultUnsettled       = "unsettled"        // 2xx 但没有结算头
)

// 上游推理 API 指标
var (
	// UpstreamRequestsTotal 上游请求总数，status 为 HTTP 状态码或 error
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_upstream_requests_total",
			Help: "上游推理 API 请求总数",
		},
		[]string{"status"},
	)

	// UpstreamRequestDuration 上游请求耗时（秒）
	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paygate_upstream_request_duration_seconds",
			Help:    "上游推理 API 请求耗时分布",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// UpstreamTokensTotal 上游返回的 Token 用量
	UpstreamTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_upstream_tokens_total",
			Help: "上游返回的 Token 总数",
		},
		[]string{"model", "type"},
	)
)

// 支付指标
var (
	// PaymentOutcomesTotal 支付网关结果计数
	PaymentOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_payment_outcomes_total",
			Help: "支付网关处理结果总数",
		},
		[]string{"outcome"},
	)

	// TransactionsLoggedTotal 交易确认日志记录数
	TransactionsLoggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_transactions_logged_total",
			Help: "交易确认日志记录总数",
		},
		[]string{"network"},
	)
)

// 支付结果取值
const (
	OutcomeChallenged   = "challenged"
	OutcomeInvalid      = "invalid"
	OutcomeVerifyError  = "verify_error"
	OutcomeSettleFailed = "settle_failed"
	OutcomeSettled      = "settled"
)

// RecordPaymentOutcome 记录支付结果
func RecordPaymentOutcome(outcome string) {
	PaymentOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordTokens 记录 Token 用量
func RecordTokens(model string, prompt, completion int) {
	if prompt > 0 {
		UpstreamTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		UpstreamTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}
