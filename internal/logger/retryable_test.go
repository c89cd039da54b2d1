package logger

import (
	"context"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRetryableHTTPLogger tests level mapping of retry client messages.
func TestRetryableHTTPLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	var leveled retryablehttp.LeveledLogger = NewRetryableHTTPLogger(ctx)

	leveled.Error("request failed", "url", "https://music.163.com")
	leveled.Warn("retrying", "attempt", 2)
	leveled.Info("performing request")
	leveled.Debug("response received")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "request failed", entries[0].Message)
	assert.Equal(t, "https://music.163.com", entries[0].ContextMap()["url"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}
