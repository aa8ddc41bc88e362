// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"slurm-agent-proxy/internal/config"
)

// New creates a logger from cfg. The console format writes to color.Output so
// colors are dropped automatically when stdout is not a terminal.
func New(cfg *config.Config) *slog.Logger {
	if strings.ToLower(cfg.Log.Format) == "console" {
		return NewWithWriter(cfg.Log, color.Output)
	}
	return NewWithWriter(cfg.Log, os.Stdout)
}

// NewWithWriter creates a logger that writes to w.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "console":
		h = newConsoleHandler(w, opts.Level)
	default:
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h)
}

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
