package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// x402 协议常量
const (
	X402Version           = 1
	SchemeExact           = "exact"
	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// PaymentRequirements 服务端接受的支付方式
type PaymentRequirements struct {
	Scheme            string         `json:"scheme"`
	Network           string         `json:"network"`
	MaxAmountRequired string         `json:"maxAmountRequired"`
	Resource          string         `json:"resource"`
	Description       string         `json:"description"`
	MimeType          string         `json:"mimeType"`
	PayTo             string         `json:"payTo"`
	MaxTimeoutSeconds int            `json:"maxTimeoutSeconds"`
	Asset             string         `json:"asset"`
	OutputSchema      map[string]any `json:"outputSchema,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// PaymentPayload 客户端在 X-PAYMENT 头中携带的签名载荷
// Payload 内容（签名与授权）由结算服务解释，网关不做解析
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// PaymentRequiredResponse 402 响应体
type PaymentRequiredResponse struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error"`
	Accepts     []PaymentRequirements `json:"accepts"`
	Payer       string                `json:"payer,omitempty"`
}

// VerifyResponse 结算服务 /verify 响应
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse 结算服务 /settle 响应，成功时编码进 X-PAYMENT-RESPONSE
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

// DecodePaymentHeader 解析 X-PAYMENT 头（base64 编码的 JSON）
func DecodePaymentHeader(header string) (*PaymentPayload, error) {
	header = strings.TrimSpace(header)
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(header, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid payment header encoding: %w", err)
		}
	}

	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid payment header payload: %w", err)
	}
	if payload.X402Version != X402Version {
		return nil, fmt.Errorf("unsupported x402 version: %d", payload.X402Version)
	}
	if payload.Scheme == "" || payload.Network == "" || len(payload.Payload) == 0 {
		return nil, errors.New("invalid payment header payload: missing scheme, network or payload")
	}
	return &payload, nil
}

// EncodePaymentHeader 编码 X-PAYMENT 头，供客户端与测试使用
func EncodePaymentHeader(payload PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("序列化支付载荷失败: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeSettlement 编码 X-PAYMENT-RESPONSE 头
func EncodeSettlement(settle *SettleResponse) (string, error) {
	raw, err := json.Marshal(settle)
	if err != nil {
		return "", fmt.Errorf("序列化结算结果失败: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeSettlement 解析 X-PAYMENT-RESPONSE 头
func DecodeSettlement(header string) (*SettleResponse, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("invalid payment response encoding: %w", err)
	}
	var settle SettleResponse
	if err := json.Unmarshal(raw, &settle); err != nil {
		return nil, fmt.Errorf("invalid payment response payload: %w", err)
	}
	return &settle, nil
}
