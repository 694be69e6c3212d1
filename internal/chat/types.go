package chat

// Role 消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 对话消息
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatCompletionRequest 对话补全请求，校验通过后原样转发上游
// 可选字段使用指针，未传时不出现在转发的请求体中
type ChatCompletionRequest struct {
	Model       string    `json:"model" validate:"required"`
	Messages    []Message `json:"messages" validate:"required,min=1,dive"`
	MaxTokens   *int      `json:"max_tokens,omitempty" validate:"omitnil,min=1,max=4000"`
	Temperature *float64  `json:"temperature,omitempty" validate:"omitnil,min=0,max=2"`
	TopP        *float64  `json:"top_p,omitempty" validate:"omitnil,min=0,max=1"`
	Stream      *bool     `json:"stream,omitempty"`
}

// ChatCompletionResponse 上游响应结构，仅用于日志与指标，响应体本身原样透传
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice 补全候选
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
	Logprobs     any             `json:"logprobs"`
}

// ResponseMessage 上游返回的消息
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage Token 使用情况
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
