package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/internal/chat"
	"github.com/Idri009/Coinbase-x402-Agent/internal/metrics"
	"github.com/Idri009/Coinbase-x402-Agent/pkg/httputil"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Idri009/Coinbase-x402-Agent/internal/upstream"

// Config 上游客户端配置
type Config struct {
	Name    string        // 服务名，用于日志与就绪检查
	BaseURL string        // 如 https://api.hyperbolic.xyz/v1
	APIKey  string        // Bearer 凭证
	Timeout time.Duration // 0 表示使用 Transport 默认行为
}

// Result 上游成功响应
type Result struct {
	Body   []byte                       // 原始响应体，原样返回调用方
	Parsed *chat.ChatCompletionResponse // 尽力解析，仅用于日志与指标，可能为 nil
}

// Client 上游推理 API 客户端
// 对话补全走原始 HTTP 以保证响应体原样透传，就绪探测复用 go-openai 的模型列表接口
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *httputil.Client
	models  *openai.Client
	tracer  trace.Tracer
}

// NewClient 创建上游客户端，不做重试
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = baseURL
	if cfg.Timeout > 0 {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		name:    cfg.Name,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    httputil.NewClient(httputil.WithTimeout(cfg.Timeout), httputil.WithRetries(0)),
		models:  openai.NewClientWithConfig(openaiCfg),
		tracer:  otel.Tracer(tracerName),
	}
}

// Name 返回上游服务名
func (c *Client) Name() string {
	return c.name
}

// ChatCompletion 调用上游对话补全接口（同步，单次）
// 非 2xx 返回 *HTTPError；2xx 但缺少 choices 数组返回 ErrMalformedResponse
func (c *Client) ChatCompletion(ctx context.Context, req *chat.ChatCompletionRequest) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.chat_completion",
		trace.WithAttributes(
			attribute.String("upstream.name", c.name),
			attribute.String("llm.model", req.Model),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.http.SendJSON(ctx, http.MethodPost, c.baseURL+"/chat/completions", req, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, fmt.Errorf("调用上游 API 失败: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !resp.OK() {
		httpErr := &HTTPError{
			Status:  resp.StatusCode,
			Message: RewriteErrorMessage(resp.Body, req.Model),
			Body:    resp.Body,
		}
		span.SetStatus(codes.Error, httpErr.Message)
		return nil, httpErr
	}

	if err := checkShape(resp.Body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return nil, err
	}

	result := &Result{Body: resp.Body}
	var parsed chat.ChatCompletionResponse
	if err := json.Unmarshal(resp.Body, &parsed); err == nil {
		result.Parsed = &parsed
		if parsed.Usage != nil {
			metrics.RecordTokens(parsed.Model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
		}
	}
	return result, nil
}

// Probe 就绪探测：使用同一凭证请求模型列表
func (c *Client) Probe(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "upstream.probe",
		trace.WithAttributes(attribute.String("upstream.name", c.name)),
	)
	defer span.End()

	if _, err := c.models.ListModels(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%s API check failed: %d", c.displayName(), apiErr.HTTPStatusCode)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return fmt.Errorf("%s API check failed: %d", c.displayName(), reqErr.HTTPStatusCode)
		}
		return fmt.Errorf("%s API check failed: %w", c.displayName(), err)
	}
	return nil
}

// displayName 首字母大写的服务名
func (c *Client) displayName() string {
	if c.name == "" {
		return "Upstream"
	}
	return strings.ToUpper(c.name[:1]) + c.name[1:]
}
