package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogHandler(t *testing.T) {
	h := &memoryHandler{level: LevelInfo}
	logger := NewLogger("app")
	require.NoError(t, logger.PushHandler(h))

	sl := slog.New(NewSlogHandler(logger))
	sl.Debug("hidden")
	sl.With("request", "r-1").WithGroup("db").Warn("slow query", "ms", 250, slog.Group("conn", "host", "primary"))

	records := h.Records()
	require.Len(t, records, 1)
	assert.Equal(t, LevelWarning, records[0].Level)
	assert.Equal(t, "slow query", records[0].Message)
	assert.Equal(t, map[string]any{
		"request":      "r-1",
		"db.ms":        int64(250),
		"db.conn.host": "primary",
	}, records[0].Context)
}

func TestSlogHandler_Enabled(t *testing.T) {
	logger := NewLogger("app")
	require.NoError(t, logger.PushHandler(&memoryHandler{level: LevelWarning}))
	handler := NewSlogHandler(logger)

	assert.False(t, handler.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, handler.Enabled(t.Context(), slog.LevelError))
	assert.Same(t, handler, handler.WithGroup(""))
}
