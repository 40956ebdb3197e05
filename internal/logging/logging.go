// Package logging builds the application's slog.Logger: a JSON handler
// by default (text under --dev), wrapped in a redaction handler that
// strips API keys, Plex tokens, and Discord webhook ids before any
// record leaves the process (SPEC_FULL.md AMBIENT STACK, grounded on
// original_source/gd_poller/models.py's get_default_logging_settings
// redacted_patterns and the teacher's slog-based setup in cmd/bd/main.go).
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/gdrelay/gdrelay/internal/config"
)

// New builds a slog.Logger from cfg. devMode selects a human-readable
// text handler (source:line, local time) instead of the default JSON
// handler used in production.
func New(cfg config.LoggingConfig, devMode bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: devMode}

	var base slog.Handler
	if devMode {
		base = slog.NewTextHandler(os.Stderr, opts)
	} else {
		base = slog.NewJSONHandler(os.Stderr, opts)
	}

	redactor := NewRedactor(cfg.RedactedPatterns, cfg.RedactedSubstitute)
	return slog.New(&redactingHandler{next: base, redactor: redactor})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactingHandler wraps another slog.Handler, rewriting every string
// attribute value (and the message, via Record.Message reassignment)
// through a Redactor before delegating.
type redactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clone := slog.NewRecord(r.Time, r.Level, h.redactor.Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clone.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, clone)
}

func (h *redactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.redactor.Redact(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	return a
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &redactingHandler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}
