package payment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"
	"github.com/Idri009/Coinbase-x402-Agent/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Idri009/Coinbase-x402-Agent/internal/payment"

// 402 拒绝原因
const (
	reasonHeaderRequired = "X-PAYMENT header is required"
	reasonNoMatch        = "Unable to find matching payment requirements"
	reasonSettleFailed   = "Payment settlement failed"
)

// FacilitatorGate 基于外部结算服务的 x402 exact 方案网关
// 只负责协议握手与转发，签名校验和链上结算均由结算服务完成
type FacilitatorGate struct {
	route       RouteConfig
	network     Network
	amount      string
	facilitator Facilitator
	log         *zap.Logger
	tracer      trace.Tracer
}

// NewFacilitatorGate 校验路由配置并创建网关
func NewFacilitatorGate(route RouteConfig, facilitator Facilitator, log *zap.Logger) (*FacilitatorGate, error) {
	if facilitator == nil {
		return nil, errors.New("facilitator is required")
	}
	if route.PayTo == "" {
		return nil, errors.New("payTo address is required")
	}
	network, err := LookupNetwork(route.Network)
	if err != nil {
		return nil, err
	}
	amount, err := ParsePrice(route.Price, network.Decimals)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FacilitatorGate{
		route:       route,
		network:     network,
		amount:      amount,
		facilitator: facilitator,
		log:         log,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// Requirements 返回指定请求对应的支付要求
func (g *FacilitatorGate) Requirements(req *http.Request) PaymentRequirements {
	return g.route.requirements(g.route.resourceURL(req), g.network, g.amount)
}

// Gate 实现 Gate 接口
func (g *FacilitatorGate) Gate(c *gin.Context, proceed func()) error {
	ctx, span := g.tracer.Start(c.Request.Context(), "payment.gate",
		trace.WithAttributes(attribute.String("payment.network", g.network.Name)),
	)
	defer span.End()

	log := logger.FromContext(ctx, g.log)
	requirements := g.Requirements(c.Request)

	header := c.GetHeader(HeaderPayment)
	if header == "" {
		metrics.RecordPaymentOutcome(metrics.OutcomeChallenged)
		span.SetAttributes(attribute.String("payment.outcome", metrics.OutcomeChallenged))
		g.challenge(c, requirements, reasonHeaderRequired, "")
		return nil
	}

	payload, err := DecodePaymentHeader(header)
	if err != nil {
		metrics.RecordPaymentOutcome(metrics.OutcomeInvalid)
		span.SetAttributes(attribute.String("payment.outcome", metrics.OutcomeInvalid))
		log.Warn("支付头解析失败", zap.Error(err))
		g.challenge(c, requirements, err.Error(), "")
		return nil
	}
	if payload.Scheme != requirements.Scheme || payload.Network != requirements.Network {
		metrics.RecordPaymentOutcome(metrics.OutcomeInvalid)
		span.SetAttributes(attribute.String("payment.outcome", metrics.OutcomeInvalid))
		g.challenge(c, requirements, reasonNoMatch, "")
		return nil
	}

	verify, err := g.facilitator.Verify(ctx, *payload, requirements)
	if err != nil {
		metrics.RecordPaymentOutcome(metrics.OutcomeVerifyError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		log.Error("支付校验请求失败", zap.Error(err))
		return &GateError{Status: http.StatusBadGateway, Message: "Payment verification failed", Err: err}
	}
	if !verify.IsValid {
		metrics.RecordPaymentOutcome(metrics.OutcomeInvalid)
		span.SetAttributes(attribute.String("payment.outcome", metrics.OutcomeInvalid))
		log.Warn("支付校验未通过",
			zap.String("reason", verify.InvalidReason),
			zap.String("payer", verify.Payer),
		)
		g.challenge(c, requirements, verify.InvalidReason, verify.Payer)
		return nil
	}

	original := c.Writer
	buffered := newBufferedWriter(original)
	c.Writer = buffered
	proceed()
	c.Writer = original

	settle, err := g.facilitator.Settle(ctx, *payload, requirements)
	if err != nil || !settle.Success {
		metrics.RecordPaymentOutcome(metrics.OutcomeSettleFailed)
		span.SetAttributes(attribute.String("payment.outcome", metrics.OutcomeSettleFailed))

		reason, payer := reasonSettleFailed, verify.Payer
		if err != nil {
			span.RecordError(err)
			log.Error("支付结算请求失败", zap.Error(err))
		} else {
			if settle.ErrorReason != "" {
				reason = settle.ErrorReason
			}
			if settle.Payer != "" {
				payer = settle.Payer
			}
			log.Warn("支付结算失败", zap.String("reason", reason), zap.String("payer", payer))
		}
		g.challenge(c, requirements, reason, payer)
		return nil
	}

	if settle.Network == "" {
		settle.Network = g.network.Name
	}
	if settle.Payer == "" {
		settle.Payer = verify.Payer
	}
	encoded, err := EncodeSettlement(settle)
	if err != nil {
		return fmt.Errorf("编码结算结果失败: %w", err)
	}

	c.Header(HeaderPaymentResponse, encoded)
	metrics.RecordPaymentOutcome(metrics.OutcomeSettled)
	span.SetAttributes(
		attribute.String("payment.outcome", metrics.OutcomeSettled),
		attribute.String("payment.transaction", settle.Transaction),
	)
	log.Info("支付结算成功",
		zap.String("transaction", settle.Transaction),
		zap.String("network", settle.Network),
		zap.String("payer", settle.Payer),
	)

	return buffered.flushTo(original)
}

// challenge 写出 402 响应
func (g *FacilitatorGate) challenge(c *gin.Context, requirements PaymentRequirements, reason, payer string) {
	c.AbortWithStatusJSON(http.StatusPaymentRequired, PaymentRequiredResponse{
		X402Version: X402Version,
		Error:       reason,
		Accepts:     []PaymentRequirements{requirements},
		Payer:       payer,
	})
}
