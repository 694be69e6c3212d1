package common

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ============================================================================
// 错误类型定义
// ============================================================================

// Kind 错误类别，作为错误信封中的 error 字段对外输出
type Kind string

const (
	KindMissingCorrelationID      Kind = "MissingCorrelationId"      // 缺少 X-Request-ID
	KindValidation                Kind = "ValidationError"           // 请求体校验失败
	KindConfiguration             Kind = "ConfigurationError"        // 服务端配置缺失
	KindUpstreamHTTP              Kind = "UpstreamHttpError"         // 上游返回非 2xx
	KindMalformedUpstreamResponse Kind = "MalformedUpstreamResponse" // 上游响应缺少 choices
	KindPaymentGate               Kind = "PaymentGateError"          // 支付网关错误
	KindInternalFault             Kind = "InternalFault"             // 未分类内部错误
	KindRouteNotFound             Kind = "RouteNotFound"             // 路由不存在
	KindRateLimited               Kind = "RateLimited"               // 请求过于频繁
)

// MessageUnexpected 内部错误对外统一消息，原始错误只写日志
const MessageUnexpected = "An unexpected error occurred"

// defaultStatus 各类别的默认 HTTP 状态码
var defaultStatus = map[Kind]int{
	KindMissingCorrelationID:      http.StatusBadRequest,
	KindValidation:                http.StatusBadRequest,
	KindConfiguration:             http.StatusInternalServerError,
	KindUpstreamHTTP:              http.StatusBadGateway,
	KindMalformedUpstreamResponse: http.StatusInternalServerError,
	KindPaymentGate:               http.StatusInternalServerError,
	KindInternalFault:             http.StatusInternalServerError,
	KindRouteNotFound:             http.StatusNotFound,
	KindRateLimited:               http.StatusTooManyRequests,
}

// DefaultStatus 返回类别对应的默认状态码
func DefaultStatus(kind Kind) int {
	if status, ok := defaultStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError 网关统一错误
type AppError struct {
	Kind    Kind   // 错误类别
	Status  int    // HTTP 状态码
	Message string // 对外消息
	Details any    // 附加明细（如字段校验错误列表）
	Err     error  // 原始错误，不对外暴露
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 按类别创建错误，状态码取默认值
func NewError(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Status:  DefaultStatus(kind),
		Message: message,
	}
}

// WithStatus 覆盖状态码
func (e *AppError) WithStatus(status int) *AppError {
	if status > 0 {
		e.Status = status
	}
	return e
}

// WithDetails 附加明细
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Wrap 附加原始错误
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// InternalFault 将任意错误包装为内部错误，消息统一为通用文案
func InternalFault(err error) *AppError {
	return NewError(KindInternalFault, MessageUnexpected).Wrap(err)
}

// AsAppError 提取 AppError，非 AppError 一律视为内部错误
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalFault(err)
}

// ============================================================================
// 时间格式
// ============================================================================

// TimestampLayout ISO-8601 毫秒精度 UTC 时间格式
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp 返回当前时间的 ISO-8601 字符串
func Timestamp() string {
	return FormatTimestamp(time.Now())
}

// FormatTimestamp 格式化为 ISO-8601 UTC 字符串
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
