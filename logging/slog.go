package logging

import (
	"context"
	"log/slog"
	"slices"
)

// SlogHandler lets log/slog callers write through a Logger.
type SlogHandler struct {
	logger *Logger
	attrs  []any
	group  string
}

var _ slog.Handler = (*SlogHandler)(nil)

// NewSlogHandler creates a slog handler over logger.
func NewSlogHandler(logger *Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.IsHandling(FromSlog(level))
}

// Handle implements slog.Handler.
func (h *SlogHandler) Handle(ctx context.Context, r slog.Record) error {
	args := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		args = appendAttr(args, h.group, a)
		return true
	})
	h.logger.Log(ctx, FromSlog(r.Level), r.Message, args...)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := slices.Clone(h.attrs)
	for _, a := range attrs {
		args = appendAttr(args, h.group, a)
	}
	return &SlogHandler{logger: h.logger, attrs: args, group: h.group}
}

// WithGroup implements slog.Handler.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, group: qualify(h.group, name)}
}

func appendAttr(args []any, group string, a slog.Attr) []any {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return args
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = qualify(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			args = appendAttr(args, prefix, ga)
		}
		return args
	}
	return append(args, qualify(group, a.Key), a.Value.Any())
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
