package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/noteduco342/groupmeet-backend/internal/config"
)

// New builds the process logger and installs it as the slog default.
// Production uses JSON output, everything else text.
func New(cfg *config.Config) *slog.Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Log.Level),
		AddSource: cfg.IsProduction(),
	}

	format := cfg.Log.Format
	if format == "" {
		if cfg.IsProduction() {
			format = "json"
		} else {
			format = "text"
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler).With(
		"service", cfg.Server.AppName,
		"environment", cfg.Server.Environment,
	)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(level string) slog.Level {
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
