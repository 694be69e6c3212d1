package payment

import (
	"fmt"
	"net/http"
	"strings"
)

// RouteConfig 单条付费路由的收费配置
type RouteConfig struct {
	Route             string // "POST /v1/chat/completions"
	Price             string // "$0.1"
	Network           string
	PayTo             string
	Description       string
	MimeType          string
	MaxTimeoutSeconds int
	Discoverable      bool
	InputSchema       map[string]any
	OutputSchema      map[string]any
	ResourceURL       string // 为空时由请求推导
}

// Method 路由的 HTTP 方法
func (r RouteConfig) Method() string {
	method, _, found := strings.Cut(strings.TrimSpace(r.Route), " ")
	if !found {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}

// Path 路由路径
func (r RouteConfig) Path() string {
	route := strings.TrimSpace(r.Route)
	if _, path, found := strings.Cut(route, " "); found {
		return strings.TrimSpace(path)
	}
	return route
}

// requirements 构建 exact 方案的支付要求
func (r RouteConfig) requirements(resource string, network Network, amount string) PaymentRequirements {
	input := map[string]any{
		"type":         "http",
		"method":       r.Method(),
		"discoverable": r.Discoverable,
	}
	for k, v := range r.InputSchema {
		input[k] = v
	}

	mimeType := r.MimeType
	if mimeType == "" {
		mimeType = "application/json"
	}

	return PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           network.Name,
		MaxAmountRequired: amount,
		Resource:          resource,
		Description:       r.Description,
		MimeType:          mimeType,
		PayTo:             r.PayTo,
		MaxTimeoutSeconds: r.MaxTimeoutSeconds,
		Asset:             network.Asset,
		OutputSchema: map[string]any{
			"input":  input,
			"output": r.OutputSchema,
		},
		Extra: map[string]any{
			"name":    network.AssetName,
			"version": network.AssetVersion,
		},
	}
}

// resourceURL 资源地址，未配置时按请求的协议、主机与路径拼接
func (r RouteConfig) resourceURL(req *http.Request) string {
	if r.ResourceURL != "" {
		return r.ResourceURL
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)
}

// DefaultChatCompletionRoute 对话补全路由的收费与服务发现配置
func DefaultChatCompletionRoute(payTo, price, network, description string, maxTimeoutSeconds int, resourceURL string) RouteConfig {
	return RouteConfig{
		Route:             "POST /v1/chat/completions",
		Price:             price,
		Network:           network,
		PayTo:             payTo,
		Description:       description,
		MimeType:          "application/json",
		MaxTimeoutSeconds: maxTimeoutSeconds,
		Discoverable:      true,
		InputSchema:       chatCompletionInputSchema(),
		OutputSchema:      chatCompletionOutputSchema(),
		ResourceURL:       resourceURL,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func chatCompletionInputSchema() map[string]any {
	model := prop("string", "The AI model to use for completion (e.g., 'meta-llama/Meta-Llama-3.1-405B-Instruct')")
	model["minLength"] = 1

	role := prop("string", "The role of the message sender")
	role["enum"] = []string{"system", "user", "assistant"}
	content := prop("string", "The content of the message")
	content["minLength"] = 1

	messages := prop("array", "Array of conversation messages with role and content")
	messages["items"] = map[string]any{
		"type":       "object",
		"properties": map[string]any{"role": role, "content": content},
		"required":   []string{"role", "content"},
	}
	messages["minItems"] = 1

	maxTokens := prop("number", "Maximum number of tokens to generate in the response (1-4000)")
	maxTokens["minimum"] = 1
	maxTokens["maximum"] = 4000

	temperature := prop("number", "Controls randomness in response generation (0.0-2.0, lower = more focused)")
	temperature["minimum"] = 0
	temperature["maximum"] = 2

	topP := prop("number", "Controls diversity via nucleus sampling (0.0-1.0, lower = more focused)")
	topP["minimum"] = 0
	topP["maximum"] = 1

	return map[string]any{
		"body": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"model":       model,
				"messages":    messages,
				"max_tokens":  maxTokens,
				"temperature": temperature,
				"top_p":       topP,
				"stream":      prop("boolean", "Whether to stream the response incrementally"),
			},
			"required": []string{"model", "messages"},
		},
	}
}

func chatCompletionOutputSchema() map[string]any {
	message := prop("object", "The generated message")
	message["properties"] = map[string]any{
		"role":    prop("string", "The role of the assistant"),
		"content": prop("string", "The generated response content"),
	}

	choices := prop("array", "Array of completion choices")
	choices["items"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index":         prop("number", "The index of the choice"),
			"message":       message,
			"finish_reason": prop("string", "Reason the generation stopped (e.g., 'stop', 'length')"),
		},
	}

	usage := prop("object", "Token usage statistics")
	usage["properties"] = map[string]any{
		"prompt_tokens":     prop("number", "Number of tokens in the prompt"),
		"completion_tokens": prop("number", "Number of tokens in the completion"),
		"total_tokens":      prop("number", "Total tokens used (prompt + completion)"),
	}

	schema := prop("object", "Chat completion response with generated message and metadata")
	schema["properties"] = map[string]any{
		"id":      prop("string", "Unique identifier for the completion"),
		"object":  prop("string", "Object type (always 'chat.completion')"),
		"created": prop("number", "Unix timestamp of when the completion was created"),
		"model":   prop("string", "The model used for the completion"),
		"choices": choices,
		"usage":   usage,
	}
	return schema
}
