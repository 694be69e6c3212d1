package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Idri009/Coinbase-x402-Agent/internal/chat"
	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"
	"github.com/Idri009/Coinbase-x402-Agent/internal/payment"
	"github.com/Idri009/Coinbase-x402-Agent/internal/upstream"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Idri009/Coinbase-x402-Agent/api/handlers/chat"

// 对外消息
const (
	MessageInvalidRequest  = "Invalid request format"
	MessageBodyTooLarge    = "Request body too large"
	MessageMalformed       = "Invalid response format from upstream API"
	MessagePaymentFailed   = "Payment processing failed"
	MessagePaymentRequired = "Payment required"
	messageMisconfigured   = "Server misconfigured. Missing environment variables: "
	messageGateMissing     = "Server misconfigured. Payment gate is not available"
)

// Upstream 上游推理服务
type Upstream interface {
	ChatCompletion(ctx context.Context, req *chat.ChatCompletionRequest) (*upstream.Result, error)
}

// ConfigChecker 报告缺失的必需配置
type ConfigChecker interface {
	MissingKeys() []string
}

// Handler 付费对话补全 Handler
// 处理顺序固定：配置检查 → 参数校验 → 调用上游 → 响应结构检查 → 支付网关 → 原样返回
type Handler struct {
	config    ConfigChecker
	validator *chat.Validator
	upstream  Upstream
	gate      payment.Gate
	log       *zap.Logger
	tracer    trace.Tracer
}

// NewHandler 创建 Handler，gate 可为 nil（配置不完整时）
func NewHandler(config ConfigChecker, up Upstream, gate payment.Gate, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		config:    config,
		validator: chat.NewValidator(),
		upstream:  up,
		gate:      gate,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
}

// ChatCompletion 付费对话补全
// @Summary 对话补全（x402 付费）
// @Description 校验请求并调用上游推理服务，结果在支付结算成功后原样返回
// @Tags Chat
// @Accept json
// @Produce json
// @Param X-Request-ID header string true "调用方关联 ID"
// @Param X-PAYMENT header string false "x402 支付载荷（base64 JSON）"
// @Param request body chat.ChatCompletionRequest true "对话补全请求"
// @Success 200 {object} chat.ChatCompletionResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 402 {object} payment.PaymentRequiredResponse
// @Failure 500 {object} common.ErrorResponse
// @Router /v1/chat/completions [post]
func (h *Handler) ChatCompletion(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "chat.completion")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	log := logger.FromContext(ctx, h.log)
	fail := func(err *common.AppError) {
		span.SetStatus(codes.Error, string(err.Kind))
		common.AbortWithError(c, log, err)
	}

	if h.config != nil {
		if missing := h.config.MissingKeys(); len(missing) > 0 {
			log.Error("Configuration error", zap.Strings("missingEnvVars", missing))
			fail(common.NewError(common.KindConfiguration, messageMisconfigured+strings.Join(missing, ", ")))
			return
		}
	}
	if h.gate == nil {
		log.Error("Configuration error", zap.String("reason", "payment gate not configured"))
		fail(common.NewError(common.KindConfiguration, messageGateMissing))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			fail(common.NewError(common.KindValidation, MessageBodyTooLarge).WithStatus(http.StatusRequestEntityTooLarge))
			return
		}
		fail(common.InternalFault(err))
		return
	}

	req, err := h.validator.Decode(body)
	if err != nil {
		var verr *chat.ValidationError
		if errors.As(err, &verr) {
			log.Warn("Validation error", zap.Any("errors", verr.Violations))
			fail(common.NewError(common.KindValidation, MessageInvalidRequest).WithDetails(verr.Violations))
			return
		}
		fail(common.InternalFault(err))
		return
	}

	span.SetAttributes(attribute.String("llm.model", req.Model))
	log.Info("Chat completion request", zap.String("model", req.Model))

	result, err := h.upstream.ChatCompletion(ctx, req)
	if err != nil {
		var httpErr *upstream.HTTPError
		switch {
		case errors.As(err, &httpErr):
			log.Error("Upstream API error",
				zap.Int("status", httpErr.Status),
				zap.String("model", req.Model),
			)
			fail(common.NewError(common.KindUpstreamHTTP, httpErr.Message).WithStatus(httpErr.Status).Wrap(err))
		case errors.Is(err, upstream.ErrMalformedResponse):
			log.Error("Malformed upstream response", zap.String("model", req.Model))
			fail(common.NewError(common.KindMalformedUpstreamResponse, MessageMalformed).Wrap(err))
		default:
			fail(common.InternalFault(err))
		}
		return
	}

	proceeded := false
	err = h.gate.Gate(c, func() {
		if proceeded {
			return
		}
		proceeded = true
		c.Data(http.StatusOK, "application/json; charset=utf-8", result.Body)
	})
	if err != nil {
		var gateErr *payment.GateError
		if errors.As(err, &gateErr) {
			log.Error("Payment gate error", zap.Int("status", gateErr.Status), zap.Error(err))
			fail(common.NewError(common.KindPaymentGate, gateErr.Message).WithStatus(gateErr.Status).Wrap(err))
			return
		}
		log.Error("Payment gate error", zap.Error(err))
		fail(common.NewError(common.KindPaymentGate, MessagePaymentFailed).Wrap(err))
		return
	}

	// 网关既未放行也未写出拒绝响应
	if !proceeded && !c.Writer.Written() {
		fail(common.NewError(common.KindPaymentGate, MessagePaymentRequired).WithStatus(http.StatusPaymentRequired))
	}
}
