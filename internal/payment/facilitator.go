package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/pkg/httputil"
)

// Facilitator x402 结算服务
type Facilitator interface {
	Verify(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*SettleResponse, error)
}

// FacilitatorError 结算服务返回了无法解释的响应
type FacilitatorError struct {
	Op     string
	Status int
	Body   string
}

// Error 实现 error 接口
func (e *FacilitatorError) Error() string {
	return fmt.Sprintf("facilitator %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// facilitatorRequest /verify 与 /settle 共用的请求体
type facilitatorRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// FacilitatorClient 基于 HTTP 的结算服务客户端
type FacilitatorClient struct {
	baseURL string
	http    *httputil.Client
	auth    Authorizer
}

// NewFacilitatorClient 创建结算服务客户端，auth 为 nil 时不携带认证头
func NewFacilitatorClient(baseURL string, timeout time.Duration, auth Authorizer, opts ...httputil.ClientOption) *FacilitatorClient {
	opts = append([]httputil.ClientOption{httputil.WithTimeout(timeout)}, opts...)
	return &FacilitatorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httputil.NewClient(opts...),
		auth:    auth,
	}
}

// Verify 校验支付载荷
func (f *FacilitatorClient) Verify(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*VerifyResponse, error) {
	resp, err := f.post(ctx, "/verify", payload, requirements)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	// 4xx 携带 invalidReason 时视为有效的校验结论
	if jsonErr := json.Unmarshal(resp.Body, &out); jsonErr != nil || (!resp.OK() && out.InvalidReason == "") {
		return nil, &FacilitatorError{Op: "verify", Status: resp.StatusCode, Body: string(resp.Body)}
	}
	return &out, nil
}

// Settle 结算支付
func (f *FacilitatorClient) Settle(ctx context.Context, payload PaymentPayload, requirements PaymentRequirements) (*SettleResponse, error) {
	resp, err := f.post(ctx, "/settle", payload, requirements)
	if err != nil {
		return nil, err
	}

	var out SettleResponse
	if jsonErr := json.Unmarshal(resp.Body, &out); jsonErr != nil || (!resp.OK() && out.ErrorReason == "") {
		return nil, &FacilitatorError{Op: "settle", Status: resp.StatusCode, Body: string(resp.Body)}
	}
	return &out, nil
}

func (f *FacilitatorClient) post(ctx context.Context, path string, payload PaymentPayload, requirements PaymentRequirements) (*httputil.Response, error) {
	url := f.baseURL + path

	headers := map[string]string{}
	if f.auth != nil {
		authorization, err := f.auth.Authorization(http.MethodPost, url)
		if err != nil {
			return nil, fmt.Errorf("生成结算服务认证头失败: %w", err)
		}
		headers["Authorization"] = authorization
	}

	body := facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
	}
	resp, err := f.http.SendJSON(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return nil, fmt.Errorf("调用结算服务 %s 失败: %w", path, err)
	}
	return resp, nil
}
