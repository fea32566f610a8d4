package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatJSON = "json"
	FormatText = "text"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	*slog.Logger
}

// LogConfig controls how NewLogger builds its handler.
type LogConfig struct {
	Level  string
	Format string
	Output io.Writer
	RunID  string
}

// NewLogger creates a Logger writing to cfg.Output (stdout when nil).
func NewLogger(cfg LogConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == FormatJSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	if cfg.RunID != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("run_id", cfg.RunID)})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NopLogger discards everything. Used by tests.
func NopLogger() *Logger {
	return NewLogger(LogConfig{Output: io.Discard})
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogAt writes msg at the named level ("debug", "info", "warn", "error").
func (l *Logger) LogAt(level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		l.Debug(msg, args...)
	case LevelWarn:
		l.Warn(msg, args...)
	case LevelError:
		l.Error(msg, args...)
	default:
		l.Info(msg, args...)
	}
}

// Fatal logs a critical error and exits with status 1.
// Only the composition root calls this.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
