package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/wq-threshold-etl/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		hidden  slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"INFO", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"warning", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"", slog.LevelInfo, slog.LevelDebug},
		{"verbose", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.hidden))
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	restoreDefaultLogger(t)

	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json"})
	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())

	logger = NewLogger(&config.Config{LogLevel: "info", LogFormat: "TEXT"})
	assert.IsType(t, &slog.TextHandler{}, logger.Handler())
}

func TestNewLogger_InstallsDefault(t *testing.T) {
	restoreDefaultLogger(t)

	logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	assert.Same(t, logger.Handler(), slog.Default().Handler())
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestNewMetricsForTesting(t *testing.T) {
	m1 := NewMetricsForTesting()
	m2 := NewMetricsForTesting()
	m1.EventsDetected.WithLabelValues("do_mgl").Inc()
	assert.NotSame(t, m1.EventsDetected, m2.EventsDetected)
}
