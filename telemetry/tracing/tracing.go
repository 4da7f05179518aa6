// Package tracing provides the otel tracer used to wrap each provider
// dispatch call with a span, so a slow or failing provider shows up as a
// span in whatever backend the configured exporter reports to.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/engels74/moversentinel"

// Tracer returns the package-wide tracer, resolved against whatever
// TracerProvider is currently registered with otel (otelinit installs
// the real one when an OTLP endpoint is configured).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a child span named op and returns the derived context
// alongside a finish func that records err (if any) on the span before
// ending it.
func StartSpan(ctx context.Context, op string) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, op)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
