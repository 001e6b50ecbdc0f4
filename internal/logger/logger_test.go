package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_DETAILED", "true")
	t.Setenv("FMP_LOG_LEVEL", "WARN")
	t.Setenv("DISABLE_TRACING", "true")

	cfg := LoadConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.True(t, cfg.DetailedLogging)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, map[string]string{"fmp": "WARN"}, cfg.Components)
}

func TestComponentLevels(t *testing.T) {
	require.NoError(t, InitWithConfig(LogConfig{
		Level:      "INFO",
		Format:     "text",
		Components: map[string]string{"fmp": "WARN", "adk": "DEBUG"},
	}))

	assert.Equal(t, slog.LevelWarn, ComponentLevel("fmp"))
	assert.False(t, ComponentEnabled("fmp", slog.LevelInfo))
	assert.True(t, ComponentEnabled("adk", slog.LevelDebug))
	assert.Equal(t, slog.LevelInfo, ComponentLevel("http"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLoggingWithoutTracing(t *testing.T) {
	require.NoError(t, InitWithConfig(LogConfig{Level: "DEBUG", Format: "json", DetailedLogging: true}))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		Debug(ctx, "debug", "k", 1)
		Info(ctx, "info")
		Warn(ctx, "warn")
		ErrorWithErr(ctx, "failed", errors.New("boom"))
		AgentResult(ctx, "technical_analyst_agent", "technical_analyst_result", 42)
		Recommendation(ctx, "aapl", "BUY", "s1")

		timer := StartOperation(ctx, "test.op", "symbol", "aapl")
		timer.End("action", "BUY")
		StartOperation(ctx, "test.fail").EndWithError(errors.New("boom"))
	})
	assert.False(t, IsTracingEnabled())
	assert.True(t, IsDebugEnabled())
}
