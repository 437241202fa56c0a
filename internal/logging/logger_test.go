package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNew_JSONFormatEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("service", "test-svc")}))}
	logger.Info("hello", "key", "value")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("log output not valid JSON: %v, output=%s", err, buf.String())
	}
	if decoded["service"] != "test-svc" {
		t.Errorf("service = %v, want test-svc", decoded["service"])
	}
	if decoded["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", decoded["msg"])
	}
}

func TestNew_RespectsLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: parseLevel("warn")})
	logger := &Logger{Logger: slog.New(handler)}

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("Info() logged at warn level, output=%s", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("Warn() did not log at warn level")
	}
}

func TestDefault_ProducesUsableLogger(t *testing.T) {
	logger := Default()
	if logger == nil || logger.Logger == nil {
		t.Fatal("Default() returned a nil logger")
	}
}

func TestNoopLogger_DiscardsEverything(t *testing.T) {
	var n NoopLogger
	// These must not panic and have no observable side effects.
	n.Debug("x")
	n.Info("x")
	n.Warn("x")
	n.Error("x")
}

func TestNew_TextFormatDoesNotPanic(t *testing.T) {
	logger := New(Config{Level: "info", Format: "text", Output: "stderr"}, "svc")
	logger.Info("hi")
}

func TestWith_AttachesAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := &Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	derived := base.With("request_id", "abc123")
	derived.Info("handled")

	if !strings.Contains(buf.String(), "abc123") {
		t.Errorf("With() attrs missing from output: %s", buf.String())
	}
}
