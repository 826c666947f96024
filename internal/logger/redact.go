package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Placeholder replaces attribute values that look like secrets.
const Placeholder = "[REDACTED]"

var secretMarkers = []string{"password", "key", "secret", "token", "passphrase"}

// SensitiveKey reports whether an attribute key names secret material.
// Matching is case-insensitive on a fixed marker set.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// RedactingHandler rewrites attributes with secret-looking keys before
// delegating to the wrapped handler. Group attributes are rewritten
// recursively.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps a handler with secret redaction.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]any, 0, len(members))
		for _, m := range members {
			redacted = append(redacted, redactAttr(m))
		}
		return slog.Group(a.Key, redacted...)
	}
	if SensitiveKey(a.Key) {
		return slog.String(a.Key, Placeholder)
	}
	return a
}
