package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("写入文件并按级别过滤", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gateway.log")
		log, err := New("warn", "json", path)
		require.NoError(t, err)

		log.Info("skipped")
		log.Warn("kept", zap.String(FieldRequestID, "req-1"))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "skipped")
		assert.Contains(t, string(data), `"requestId":"req-1"`)
	})

	t.Run("非法级别回退为 info", func(t *testing.T) {
		log, err := New("verbose", "console", "stderr")
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("无法打开日志文件", func(t *testing.T) {
		_, err := New("info", "json", filepath.Join(t.TempDir(), "missing", "x.log"))
		assert.Error(t, err)
	})
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", GetRequestID(ctx))

	FromContext(ctx, base).Info("with id")
	FromContext(context.Background(), base).Info("without id")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()[FieldRequestID])
	assert.NotContains(t, entries[1].ContextMap(), FieldRequestID)

	assert.NotNil(t, FromContext(ctx, nil))
}
