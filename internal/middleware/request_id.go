package middleware

import (
	"net/http"

	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey 请求 ID 在 Gin 上下文中的键
const RequestIDKey = "request_id"

// HeaderRequestID 调用方传入的关联 ID 头
const HeaderRequestID = "X-Request-ID"

// MessageRequestIDRequired 缺少关联 ID 时的提示
const MessageRequestIDRequired = "X-Request-ID header is required for request correlation"

// RequestID 请求 ID 中间件
// 关联 ID 由调用方提供，这里只负责传递与回显，不自动生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID != "" {
			c.Set(RequestIDKey, requestID)
			c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
			c.Header(HeaderRequestID, requestID)
		}
		c.Next()
	}
}

// RequireRequestID 要求请求携带 X-Request-ID，缺失时返回 400
func RequireRequestID(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if GetRequestIDFromGin(c) != "" || c.GetHeader(HeaderRequestID) != "" {
			c.Next()
			return
		}

		log.Error("Missing request ID",
			zap.String("url", c.Request.URL.RequestURI()),
			zap.String("method", c.Request.Method),
		)
		common.AbortWithError(c, log, common.NewError(common.KindMissingCorrelationID, MessageRequestIDRequired).
			WithStatus(http.StatusBadRequest))
	}
}

// GetRequestIDFromGin 从 Gin 上下文获取请求 ID
func GetRequestIDFromGin(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
