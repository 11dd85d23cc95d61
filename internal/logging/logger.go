package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelSuccess sits between Info and Warn: it marks an operation that
// completed with a state transition, as opposed to plain progress info.
const LevelSuccess = slog.Level(2)

// New creates a configured application logger.
// It writes to Stderr (to keep Stdout free for pipeline output).
// It standardizes common keys (e.g., "error" -> "err") and names the
// custom success level.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
					a.Value = slog.StringValue("SUCCESS")
				}
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Success logs msg at LevelSuccess.
func Success(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelSuccess, msg, args...)
}
