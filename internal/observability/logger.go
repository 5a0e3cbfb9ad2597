// Package observability holds the process-wide logger constructor and the
// Prometheus collectors exposed on /metrics.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a JSON logger on stdout at info level.
func NewLogger() *slog.Logger {
	return NewLoggerWithLevel(os.Stdout, "info")
}

// NewLoggerWithLevel accepts debug, info, warn or error; anything else is info.
func NewLoggerWithLevel(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
