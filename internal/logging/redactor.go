// Package logging provides an slog handler that masks credentials in
// request logs.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// RedactedValue replaces masked values.
const RedactedValue = "[REDACTED]"

// defaultSensitive lists attribute keys that are always masked. Keys
// containing one of the fragments are masked too.
var defaultSensitive = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
}

var sensitiveFragments = []string{"password", "secret", "token", "auth", "cookie"}

// RedactorHandler wraps an slog.Handler and masks credential headers and
// URL passwords before records reach it.
type RedactorHandler struct {
	handler   slog.Handler
	sensitive map[string]bool
}

// NewRedactorHandler creates a handler that redacts the default sensitive
// keys plus any extra keys, matched case-insensitively.
func NewRedactorHandler(handler slog.Handler, extra ...string) *RedactorHandler {
	sensitive := make(map[string]bool, len(defaultSensitive)+len(extra))
	for k := range defaultSensitive {
		sensitive[k] = true
	}
	for _, k := range extra {
		sensitive[strings.ToLower(k)] = true
	}

	return &RedactorHandler{handler: handler, sensitive: sensitive}
}

// New returns a logger writing through a RedactorHandler.
func New(handler slog.Handler, extra ...string) *slog.Logger {
	return slog.New(NewRedactorHandler(handler, extra...))
}

// Enabled implements slog.Handler.
func (h *RedactorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
//
//nolint:gocritic // Required by slog.Handler interface
func (h *RedactorHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		newRecord.AddAttrs(h.redactAttr(attr))
		return true
	})

	if err := h.handler.Handle(ctx, newRecord); err != nil {
		return fmt.Errorf("redactor handle failed: %w", err)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *RedactorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactAttr(attr)
	}
	return &RedactorHandler{handler: h.handler.WithAttrs(redacted), sensitive: h.sensitive}
}

// WithGroup implements slog.Handler.
func (h *RedactorHandler) WithGroup(name string) slog.Handler {
	return &RedactorHandler{handler: h.handler.WithGroup(name), sensitive: h.sensitive}
}

func (h *RedactorHandler) redactAttr(attr slog.Attr) slog.Attr {
	attr.Value = attr.Value.Resolve()

	if h.isSensitive(attr.Key) {
		return slog.String(attr.Key, RedactedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, a := range group {
			redacted[i] = h.redactAttr(a)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}

	case slog.KindString:
		return slog.String(attr.Key, redactURL(attr.Value.String()))
	}

	return attr
}

func (h *RedactorHandler) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	if h.sensitive[lower] {
		return true
	}

	for _, frag := range sensitiveFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}

	return false
}

// redactURL masks the password of absolute URLs, including proxy URLs.
// Other strings are returned unchanged.
func redactURL(s string) string {
	if !strings.Contains(s, "://") || !strings.Contains(s, "@") {
		return s
	}

	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	if _, ok := u.User.Password(); !ok {
		return s
	}

	return u.Redacted()
}
