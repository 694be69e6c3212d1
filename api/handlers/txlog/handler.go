package txlog

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	handlercommon "github.com/Idri009/Coinbase-x402-Agent/api/handlers/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 客户端上报交易信息使用的请求头
const (
	HeaderTransactionHash = "X-Transaction-Hash"
	HeaderPaymentNetwork  = "X-Payment-Network"
	HeaderPayerAddress    = "X-Payer-Address"
)

// 对外消息
const (
	MessageLogged    = "Transaction confirmation logged"
	MessageLogFailed = "Failed to log transaction confirmation"
)

// Handler 交易确认日志 Handler
type Handler struct {
	recorder TransactionRecorder
	log      *zap.Logger
}

// NewHandler 创建 Handler
func NewHandler(recorder TransactionRecorder, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = NewLogRecorder(log)
	}
	return &Handler{recorder: recorder, log: log}
}

// LogTransaction 记录客户端上报的交易确认
// @Summary 交易确认日志
// @Description 客户端在支付结算后上报交易哈希，用于与请求关联 ID 对账
// @Tags Payment
// @Accept json
// @Produce json
// @Param X-Request-ID header string true "调用方关联 ID"
// @Param X-Transaction-Hash header string false "交易哈希"
// @Param X-Payment-Network header string false "结算网络"
// @Param X-Payer-Address header string false "付款地址"
// @Success 200 {object} handlercommon.TransactionLogResponse
// @Failure 400 {object} handlercommon.ErrorResponse
// @Failure 500 {object} handlercommon.ErrorResponse
// @Router /v1/transaction-log [post]
func (h *Handler) LogTransaction(c *gin.Context) {
	requestID := common.RequestID(c)
	log := logger.FromContext(c.Request.Context(), h.log)

	entry := TransactionLogEntry{
		RequestID:   requestID,
		Transaction: c.GetHeader(HeaderTransactionHash),
		Network:     c.GetHeader(HeaderPaymentNetwork),
		Payer:       c.GetHeader(HeaderPayerAddress),
		ReceivedAt:  time.Now().UTC(),
	}

	// 请求体可选，格式错误时忽略
	if raw, err := io.ReadAll(c.Request.Body); err == nil && len(raw) > 0 {
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err == nil {
			entry.Model = body["model"]
			entry.Tokens = body["tokens"]
		} else {
			log.Debug("忽略无法解析的交易日志请求体", zap.Error(err))
		}
	}

	if err := h.recorder.Record(c.Request.Context(), entry); err != nil {
		log.Error("Transaction log error", zap.Error(err))
		common.AbortWithError(c, log, common.NewError(common.KindInternalFault, MessageLogFailed).Wrap(err))
		return
	}

	c.JSON(http.StatusOK, handlercommon.TransactionLogResponse{
		Status:    handlercommon.StatusSuccess,
		Message:   MessageLogged,
		RequestID: requestID,
		Timestamp: common.Timestamp(),
	})
}
