package payment

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Gate 付费网关
//
// 调用约定：
//   - 可以在调用 proceed 之前直接写出 402 拒绝响应并返回 nil；
//   - 校验通过时必须且只能调用一次 proceed；
//   - 返回的错误由调用方转换为统一错误信封（若响应尚未写出）。
type Gate interface {
	Gate(c *gin.Context, proceed func()) error
}

// GateFunc 函数适配器
type GateFunc func(c *gin.Context, proceed func()) error

// Gate 实现 Gate 接口
func (f GateFunc) Gate(c *gin.Context, proceed func()) error {
	return f(c, proceed)
}

// GateError 支付网关错误，Status 原样转发给调用方
type GateError struct {
	Status  int
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *GateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gate error %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("payment gate error %d: %s", e.Status, e.Message)
}

// Unwrap 返回原始错误
func (e *GateError) Unwrap() error {
	return e.Err
}
