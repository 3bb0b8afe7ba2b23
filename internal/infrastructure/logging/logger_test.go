package logging

import (
	"log/slog"
	"testing"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_ReturnsUsableLogger(t *testing.T) {
	log := New(config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"}, "test")
	if log == nil || log.Logger == nil {
		t.Fatal("New() returned nil logger")
	}
	// Must not panic
	log.Debug("debug message", "key", "value")
	log.Info("info message")
}

func TestWith_AddsAttributes(t *testing.T) {
	log := Default()
	child := log.With("component", "test")
	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if child == log {
		t.Error("With() should return a new logger instance")
	}
}
