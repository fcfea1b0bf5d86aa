// Package clog carries log attributes in the context so deeply nested
// code can annotate the record its caller eventually emits.
package clog

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

type ctxAttrs struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type ctxAttrsKey struct{}

// ContextWithAttrs returns a context that accumulates log attributes.
func ContextWithAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrsKey{}, &ctxAttrs{attrs: make(map[string]any)})
}

// AddAttribute records an attribute on the context. A context without an
// attribute store is a no-op.
func AddAttribute(ctx context.Context, key string, value any) {
	c, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[key] = value
}

// ErrorAttributeKey is the attribute key AddError records under.
const ErrorAttributeKey = "error.message"

// AddError records an error on the context.
func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

// Attributes returns a copy of the attributes recorded on the context.
func Attributes(ctx context.Context) map[string]any {
	c, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	copied := make(map[string]any, len(c.attrs))
	for k, v := range c.attrs {
		copied[k] = v
	}
	return copied
}

// AttributesHandler is a slog.Handler that appends the attributes
// accumulated on the record's context.
type AttributesHandler struct {
	handler slog.Handler
}

func NewAttributesHandler(handler slog.Handler) *AttributesHandler {
	return &AttributesHandler{handler: handler}
}

func (h *AttributesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AttributesHandler) Handle(ctx context.Context, record slog.Record) error {
	for k, v := range Attributes(ctx) {
		record.AddAttrs(slog.Any(k, v))
	}
	return h.handler.Handle(ctx, record)
}

func (h *AttributesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *AttributesHandler) WithGroup(name string) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithGroup(name)}
}

// NewLogger builds the process logger: text output on stderr wrapped
// with context attribute support.
func NewLogger(level slog.Level) *slog.Logger {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(NewAttributesHandler(base))
}
