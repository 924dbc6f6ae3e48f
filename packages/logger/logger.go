// Package logger builds the structured logger shared by the client and CLI.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLevel  = "COMMENT_CLIENT_LOG_LEVEL"
	EnvFormat = "COMMENT_CLIENT_LOG_FORMAT"
	EnvOutput = "COMMENT_CLIENT_LOG_OUTPUT"
)

// Options selects level, format and destination. Empty fields fall back
// to INFO, text and stdout.
type Options struct {
	Level  string
	Format string
	Output string
}

// FromEnv reads Options from the COMMENT_CLIENT_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:  os.Getenv(EnvLevel),
		Format: os.Getenv(EnvFormat),
		Output: os.Getenv(EnvOutput),
	}
}

// New creates a configured logger:
// - Level: DEBUG, INFO, WARN, ERROR (default: INFO)
// - Format: json or text (default: text)
// - Output: stdout, stderr, or file path (default: stdout)
func New(opts Options) *slog.Logger {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "text"
	}

	var writer io.Writer
	switch opts.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stdout if file can't be opened
			writer = os.Stdout
		} else {
			writer = file
		}
	}

	return NewWithWriter(writer, format, ParseLevel(opts.Level))
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, format string, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses log level from string
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
