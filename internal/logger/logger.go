// Package logger builds the application's *slog.Logger from configuration.
//
// The logger is created once in main and injected everywhere else; nothing in
// this repo reaches for a global logger.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/mentorship-platform/internal/config"
)

// New returns a text or JSON slog logger writing to w. The component name,
// when set, is attached to every record.
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Log.Level),
		AddSource: cfg.Log.Source,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if cfg.Log.Component != "" {
		l = l.With(slog.String("component", cfg.Log.Component))
	}
	return l
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
