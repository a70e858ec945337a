package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the process-wide default logger. format is "text" or "json".
func Setup(logLevel, format string) {
	slog.SetDefault(New(os.Stderr, logLevel, format))
}

func New(w io.Writer, logLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}

// Discard returns a logger that drops every record. Used by tests and the
// one-shot CLI when quiet output is requested.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
