package logger_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/logger"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"development", "error", slog.LevelDebug},
		{"production", "", slog.LevelInfo},
		{"production", "debug", slog.LevelDebug},
		{"production", "WARN", slog.LevelWarn},
		{"production", "error", slog.LevelError},
		{"test", "nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.Level(&config.Config{Env: tt.env, LogLevel: tt.level}))
		})
	}
}
