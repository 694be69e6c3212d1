package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MessageUnavailable 无法解析上游错误时的兜底消息
const MessageUnavailable = "The AI service is currently unavailable"

// ErrMalformedResponse 上游 2xx 响应缺少 choices 数组
var ErrMalformedResponse = errors.New("invalid response format from upstream API")

// allowedModelsPattern 上游"不支持的模型"错误格式：Only A && B allowed now
var allowedModelsPattern = regexp.MustCompile(`Only (.+?) allowed now`)

// HTTPError 上游返回非 2xx，Message 已改写为面向调用方的文案
type HTTPError struct {
	Status  int    // 上游原始状态码
	Message string // 对外消息
	Body    []byte // 上游原始响应体，仅用于日志
}

// Error 实现 error 接口
func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream API error %d: %s", e.Status, e.Message)
}

// upstreamErrorBody 上游错误响应体
type upstreamErrorBody struct {
	Message string `json:"message"`
}

// RewriteErrorMessage 将上游错误响应转换为面向调用方的消息
// 响应体无法解析或没有 message 时返回兜底消息
func RewriteErrorMessage(body []byte, requestedModel string) string {
	var payload upstreamErrorBody
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return MessageUnavailable
	}

	if !strings.Contains(payload.Message, "allowed now") {
		return payload.Message
	}

	match := allowedModelsPattern.FindStringSubmatch(payload.Message)
	if match == nil {
		return fmt.Sprintf("Invalid model: %s. Please check the model name.", requestedModel)
	}

	var models []string
	for _, m := range strings.Split(match[1], " && ") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	sort.Strings(models)

	return fmt.Sprintf("Invalid model: \"%s\". Valid models are: %s", requestedModel, strings.Join(models, ", "))
}

// checkShape 校验上游响应必须包含 choices 数组
func checkShape(body []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := envelope["choices"]
	if !ok {
		return fmt.Errorf("%w: missing choices", ErrMalformedResponse)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return fmt.Errorf("%w: choices is not an array", ErrMalformedResponse)
	}
	return nil
}
