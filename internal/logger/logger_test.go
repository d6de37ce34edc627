package logger

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestNewReturnsLogger(t *testing.T) {
	if New("debug") == nil {
		t.Fatal("expected non-nil logger")
	}
}
