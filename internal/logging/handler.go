// Package logging builds the process logger.
//
// Records are stamped with the service name and build version. When the
// record's context carries a span (the HTTP layer starts one per request),
// its trace and span ids are added so log lines can be joined with traces.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// spanHandler decorates every record before handing it to next.
type spanHandler struct {
	next    slog.Handler
	service string
	version string
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("service", h.service), slog.String("version", h.version))

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}

// Setup returns the process logger. format "text" selects the text handler;
// anything else is JSON. An unknown level means info, a nil w means stderr.
func Setup(service, version, format, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var next slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(format, "text") {
		next = slog.NewTextHandler(w, opts)
	}
	return slog.New(&spanHandler{next: next, service: service, version: version})
}

// ParseLevel maps debug, info, warn or error onto a slog level.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
