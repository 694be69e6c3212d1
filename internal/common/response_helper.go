package common

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文键：与 middleware 包保持一致，避免循环依赖
const requestIDContextKey = "request_id"

// ErrorResponse 统一错误信封
type ErrorResponse struct {
	Error     Kind   `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

// NewErrorResponse 根据错误构建信封
func NewErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     err.Kind,
		Message:   err.Message,
		RequestID: requestID,
		Timestamp: Timestamp(),
		Details:   err.Details,
	}
}

// RequestID 从 Gin 上下文读取调用方传入的请求 ID
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(requestIDContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Request-ID")
}

// ResponseError 写出错误信封
func ResponseError(c *gin.Context, err *AppError) {
	c.JSON(err.Status, NewErrorResponse(err, RequestID(c)))
}

// AbortWithError 中断请求并写出错误信封
// 内部错误的原始信息只写日志，不返回给调用方
func AbortWithError(c *gin.Context, log *zap.Logger, err error) {
	appErr := AsAppError(err)
	if log != nil && appErr.Kind == KindInternalFault {
		log.Error("请求处理异常",
			zap.String("requestId", RequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("url", c.Request.URL.RequestURI()),
			zap.Error(appErr.Unwrap()),
		)
	}
	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(appErr.Status, NewErrorResponse(appErr, RequestID(c)))
}
