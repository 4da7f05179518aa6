// Package logging wraps slog with automatic correlation-id and
// trace/span injection so every log line emitted during a monitoring
// cycle can be joined back to its cycle and, when tracing is active, its
// span.
package logging

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying correlationID for
// FromContext to pick up in subsequent log calls.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

func correlationIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok && id != ""
}

// New returns a slog.Logger writing structured JSON to stderr at level.
// level may be a plain slog.Level or a *slog.LevelVar, in which case the
// logger's verbosity tracks later changes to the var.
func New(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// FromContext returns base enriched with the correlation id and, if a
// recording span is active, the trace and span ids found in ctx.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	logger := base
	if id, ok := correlationIDFrom(ctx); ok {
		logger = logger.With("correlation_id", id)
	}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		logger = logger.With("trace_id", span.TraceID().String(), "span_id", span.SpanID().String())
	}
	return logger
}
