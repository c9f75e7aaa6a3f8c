package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger.Logger == nil {
		t.Fatal("Default() returned Logger with nil slog.Logger")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithOptionsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: "info", Writer: &buf})
	logger.With("session_id", "abc").Info("snapshot adopted", "step", "menu")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["session_id"] != "abc" || entry["step"] != "menu" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewWithOptionsText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: "debug", Format: "text", Writer: &buf})
	logger.Debug("stale response discarded", "kind", "dates")

	if !strings.Contains(buf.String(), "kind=dates") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}
