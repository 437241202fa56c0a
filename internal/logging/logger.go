// Package logging provides the structured logger shared by every SmartChill
// service process.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction. It mirrors the `logging:` section of
// each service's YAML settings file.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Logger wraps slog.Logger with SmartChill-specific defaults.
//
// Thread Safety: all methods are safe for concurrent use from multiple
// goroutines, since they delegate directly to slog.Logger.
type Logger struct {
	*slog.Logger
}

// New creates a Logger for the named service.
//
// Parameters:
//   - cfg: logging configuration from the service's settings file
//   - service: short service name stamped onto every record ("registry",
//     "door-timer", "spoilage", "status", "notifier")
func New(cfg Config, service string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", service),
	})

	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a logger usable before configuration has been loaded.
func Default() *Logger {
	return New(Config{Level: "info", Format: "json", Output: "stdout"}, "smartchill")
}

// Interface is the minimal logging surface most packages in this module
// depend on, so they can be unit-tested without pulling in slog.
type Interface interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger discards every call. It is the fallback components use when
// they are constructed with a nil logger.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}
