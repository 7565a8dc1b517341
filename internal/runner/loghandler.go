package runner

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes every record to each handler that accepts it and calls
// onError for records at error level or above.
type teeHandler struct {
	handlers []slog.Handler
	onError  func()
}

func newTeeHandler(onError func(), handlers ...slog.Handler) *teeHandler {
	return &teeHandler{handlers: handlers, onError: onError}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelError && h.onError != nil {
		return true
	}
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError && h.onError != nil {
		h.onError()
	}
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithAttrs(attrs)
	}
	return &teeHandler{handlers: out, onError: h.onError}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithGroup(name)
	}
	return &teeHandler{handlers: out, onError: h.onError}
}
