// Package logger provides structured logging setup for ToolWeaver.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/toolweaver/toolweaver/internal/config"
)

// Closer flushes and stops a buffering handler. The synchronous setup
// returns a no-op implementation so callers can defer Close unconditionally.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stderr with a "service" attribute on every record —
// stdout stays clean because the MCP stdio mode owns it.
//
// The returned Closer flushes buffered records when logging.async is set;
// it is a no-op otherwise and always safe to call.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, cfg.QueueSize, 1)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
