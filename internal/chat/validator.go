package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// rootPath 请求体整体错误时使用的路径
const rootPath = "(root)"

// FieldViolation 单个字段的校验错误
type FieldViolation struct {
	Path       string `json:"path"`       // 字段路径，如 messages[0].content
	Constraint string `json:"constraint"` // 违反的约束，如 required、min、type
	Message    string `json:"message"`
}

// ValidationError 请求体校验错误，包含全部违规字段
type ValidationError struct {
	Violations []FieldViolation
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	return "invalid chat completion request: " + strings.Join(parts, "; ")
}

// Validator 对话补全请求校验器
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建校验器，字段路径使用 JSON 字段名
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Decode 解析并校验请求体，失败时返回 *ValidationError
func (v *Validator) Decode(body []byte) (*ChatCompletionRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ValidationError{Violations: []FieldViolation{{
			Path: rootPath, Constraint: "required", Message: "request body is required",
		}}}
	}
	if trimmed[0] != '{' {
		return nil, &ValidationError{Violations: []FieldViolation{{
			Path: rootPath, Constraint: "type", Message: "expected object",
		}}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &ValidationError{Violations: []FieldViolation{{
			Path: rootPath, Constraint: "json", Message: "malformed JSON: " + err.Error(),
		}}}
	}

	// 按字段名精确匹配逐个解码，收集全部类型错误，未知字段丢弃
	var req ChatCompletionRequest
	var violations []FieldViolation
	collect := func(fv *FieldViolation) {
		if fv != nil {
			violations = append(violations, *fv)
		}
	}

	if raw, ok := fields["model"]; ok {
		collect(decodeField(raw, "model", "string", &req.Model))
	}
	if raw, ok := fields["messages"]; ok {
		req.Messages, violations = decodeMessages(raw, violations)
	}
	if raw, ok := fields["max_tokens"]; ok {
		collect(decodeField(raw, "max_tokens", "integer", &req.MaxTokens))
	}
	if raw, ok := fields["temperature"]; ok {
		collect(decodeField(raw, "temperature", "number", &req.Temperature))
	}
	if raw, ok := fields["top_p"]; ok {
		collect(decodeField(raw, "top_p", "number", &req.TopP))
	}
	if raw, ok := fields["stream"]; ok {
		collect(decodeField(raw, "stream", "boolean", &req.Stream))
	}
	typeErrs := len(violations)

	if err := v.validate.Struct(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("校验器执行失败: %w", err)
		}
		for _, fe := range fieldErrs {
			path := fieldPath(fe.Namespace())
			if coveredBy(path, violations[:typeErrs]) {
				continue
			}
			violations = append(violations, FieldViolation{
				Path:       path,
				Constraint: fe.Tag(),
				Message:    describe(fe),
			})
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return &req, nil
}

// fieldPath 去掉命名空间中的结构体名前缀
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// decodeMessages 解码消息数组，逐条检查元素及其字段类型
func decodeMessages(raw json.RawMessage, violations []FieldViolation) ([]Message, []FieldViolation) {
	var items []json.RawMessage
	if fv := decodeField(raw, "messages", "array", &items); fv != nil {
		return nil, append(violations, *fv)
	}

	messages := make([]Message, len(items))
	for i, item := range items {
		path := fmt.Sprintf("messages[%d]", i)
		var fields map[string]json.RawMessage
		if fv := decodeField(item, path, "object", &fields); fv != nil {
			violations = append(violations, *fv)
			continue
		}
		if r, ok := fields["role"]; ok {
			if fv := decodeField(r, path+".role", "string", &messages[i].Role); fv != nil {
				violations = append(violations, *fv)
			}
		}
		if r, ok := fields["content"]; ok {
			if fv := decodeField(r, path+".content", "string", &messages[i].Content); fv != nil {
				violations = append(violations, *fv)
			}
		}
	}
	return messages, violations
}

// decodeField 解码单个字段，null 一律视为类型错误
func decodeField(raw json.RawMessage, path, want string, dst any) *FieldViolation {
	if kind := jsonKind(raw); kind != "null" {
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
	}
	return &FieldViolation{
		Path:       path,
		Constraint: "type",
		Message:    fmt.Sprintf("expected %s, received %s", want, jsonKind(raw)),
	}
}

// jsonKind 返回 JSON 值的类型名
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "undefined"
	}
	switch trimmed[0] {
	case 'n':
		return "null"
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// coveredBy 已报告类型错误的字段不再重复报告结构校验错误
func coveredBy(path string, typeErrs []FieldViolation) bool {
	for _, te := range typeErrs {
		if path == te.Path || strings.HasPrefix(path, te.Path+".") || strings.HasPrefix(path, te.Path+"[") {
			return true
		}
	}
	return false
}

// describe 生成面向调用方的校验错误描述
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s element(s)", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s element(s)", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
