package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/fatih/color"
)

// consoleTimeFormat mirrors the operator-facing layout of the console stream.
const consoleTimeFormat = "01/02/2006 03:04:05 PM"

// consoleHandler writes "<time> <LEVEL> <message> key=value..." lines. Time,
// level and message are written as-is so the level keeps its color escapes;
// attributes are rendered by a slog.TextHandler.
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	ops   []func(slog.Handler) slog.Handler
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs bytes.Buffer
	var inner slog.Handler = slog.NewTextHandler(&attrs, &slog.HandlerOptions{ReplaceAttr: dropBuiltins})
	for _, op := range h.ops {
		inner = op(inner)
	}
	if err := inner.Handle(ctx, r); err != nil {
		return err
	}

	var line bytes.Buffer
	if !r.Time.IsZero() {
		line.WriteString(r.Time.Format(consoleTimeFormat))
		line.WriteByte(' ')
	}
	line.WriteString(colorLevel(r.Level))
	line.WriteByte(' ')
	line.WriteString(r.Message)
	if len(bytes.TrimSpace(attrs.Bytes())) > 0 {
		line.WriteByte(' ')
		line.Write(attrs.Bytes())
	} else {
		line.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(line.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *consoleHandler) with(op func(slog.Handler) slog.Handler) *consoleHandler {
	clone := *h
	clone.ops = append(slices.Clip(h.ops), op)
	return &clone
}

// dropBuiltins removes the fields consoleHandler writes itself.
func dropBuiltins(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey, slog.LevelKey, slog.MessageKey:
		return slog.Attr{}
	}
	return a
}

func colorLevel(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return color.HiBlackString("DEBUG")
	case l < slog.LevelWarn:
		return color.GreenString("INFO")
	case l < slog.LevelError:
		return color.YellowString("WARN")
	default:
		return color.RedString("ERROR")
	}
}
