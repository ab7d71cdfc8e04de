// Package logger holds the process-wide structured logger.
//
// Diagnostics go to stderr so that report output on stdout stays clean for
// piping. Keys are snake_case.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the default logger instance.
var Logger = New(os.Stderr, slog.LevelInfo, FormatText)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Configure replaces the default logger.
func Configure(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	switch format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", format)
	}
	Logger = New(w, lvl, format)
	return nil
}

// ParseLevel converts a flag value into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithRun returns a logger tagged with the run label.
func WithRun(label string) *slog.Logger {
	return Logger.With("run", label)
}
