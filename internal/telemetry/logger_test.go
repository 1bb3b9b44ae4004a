package telemetry

import (
	"log/slog"
	"testing"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger("json", tt.level)
			if !logger.Enabled(nil, tt.want) {
				t.Errorf("logger for level %q not enabled at %v", tt.level, tt.want)
			}
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	if NewLogger("text", "info") == nil {
		t.Error("NewLogger(text) = nil")
	}
	if NewLogger("json", "info") == nil {
		t.Error("NewLogger(json) = nil")
	}
}
