package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/japaniel/wordcoverage/pkg/config"
)

// NewLogger creates a *slog.Logger from cfg and sets it as the default
// logger via slog.SetDefault.
//
// Format "json" produces structured JSON output; anything else produces
// human-readable text with source info. Level is one of debug, info, warn,
// error (case-insensitive) and defaults to info. Output is os.Stderr so
// stdout stays clean for reports.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
