package txlog

import (
	"context"
	"fmt"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"
	"github.com/Idri009/Coinbase-x402-Agent/internal/metrics"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TransactionLogEntry 客户端上报的交易确认
type TransactionLogEntry struct {
	RequestID   string
	Transaction string
	Network     string
	Payer       string
	Model       any
	Tokens      any
	ReceivedAt  time.Time
}

// TransactionRecorder 交易确认记录器
type TransactionRecorder interface {
	Record(ctx context.Context, entry TransactionLogEntry) error
}

// messageTransactionConfirmed 交易确认日志消息
const messageTransactionConfirmed = "Transaction confirmed"

// LogRecorder 将交易确认写入结构化日志
// 直接写 Core 而不是 Logger.Info，写入失败时返回错误
type LogRecorder struct {
	log *zap.Logger
}

// NewLogRecorder 创建日志记录器
func NewLogRecorder(log *zap.Logger) *LogRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogRecorder{log: log}
}

// Record 记录一条交易确认
func (r *LogRecorder) Record(ctx context.Context, entry TransactionLogEntry) error {
	core := r.log.Core()
	if core.Enabled(zapcore.InfoLevel) {
		at := entry.ReceivedAt
		if at.IsZero() {
			at = time.Now()
		}
		fields := []zapcore.Field{
			zap.String(logger.FieldRequestID, entry.RequestID),
			zap.String("transaction", entry.Transaction),
			zap.String("network", entry.Network),
			zap.String("payer", entry.Payer),
			zap.Any("model", entry.Model),
			zap.Any("tokens", entry.Tokens),
		}
		if err := core.Write(zapcore.Entry{
			Level:   zapcore.InfoLevel,
			Time:    at,
			Message: messageTransactionConfirmed,
		}, fields); err != nil {
			return fmt.Errorf("写入交易确认日志失败: %w", err)
		}
	}

	network := entry.Network
	if network == "" {
		network = "unknown"
	}
	metrics.TransactionsLoggedTotal.WithLabelValues(network).Inc()
	return nil
}
