package common

import appcommon "github.com/Idri009/Coinbase-x402-Agent/internal/common"

// ErrorResponse 统一错误返回结构，供文档引用
type ErrorResponse = appcommon.ErrorResponse

// HealthResponse 存活检查响应
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"` // 秒
	Version   string  `json:"version"`
}

// ReadyResponse 就绪检查成功响应
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// NotReadyResponse 就绪检查失败响应
type NotReadyResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// TransactionLogResponse 交易确认日志响应
type TransactionLogResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// 状态取值
const (
	StatusHealthy  = "healthy"
	StatusReady    = "ready"
	StatusNotReady = "not ready"
	StatusSuccess  = "success"
)
