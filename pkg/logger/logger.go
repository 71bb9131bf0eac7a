package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by Configure
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	// Default is the default logger instance
	Default *slog.Logger
)

func init() {
	// Logs go to stderr so tours and reports on stdout stay clean
	Default = NewText("info", os.Stderr)
}

// ParseLevel maps a level name to a slog level; unknown names are info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New creates a new structured JSON logger with the specified level and output
func New(level string, output io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// NewText creates a new text-formatted logger (useful for development)
func NewText(level string, output io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Configure builds a logger in the given format and installs it as the default.
func Configure(level, format string, output io.Writer) *slog.Logger {
	var l *slog.Logger
	if strings.EqualFold(format, FormatJSON) {
		l = New(level, output)
	} else {
		l = NewText(level, output)
	}
	SetDefault(l)
	return l
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetDefault sets the default logger
func SetDefault(logger *slog.Logger) {
	Default = logger
	slog.SetDefault(logger)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Default.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Default.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Default.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Default.Error(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Default.With(args...)
}
