// Package otelinit builds the OpenTelemetry tracer and meter providers
// used when an OTLP collector endpoint is configured. With no endpoint
// it returns no-op providers so StartSpan and the OTel metrics backend
// stay cheap no-ops rather than requiring a separate code path.
package otelinit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Providers bundles the tracer and meter along with a combined shutdown.
type Providers struct {
	Tracer   trace.TracerProvider
	Meter    metric.MeterProvider
	Shutdown func(ctx context.Context) error
}

// Init builds the tracer and meter providers for serviceName. When
// otlpEndpoint is empty both providers are no-ops and Shutdown is a
// no-op, letting a deployment enable OTLP export purely by setting one
// config field.
func Init(ctx context.Context, serviceName, otlpEndpoint string, insecure bool) (Providers, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return Providers{}, fmt.Errorf("build otel resource: %w", err)
	}

	if otlpEndpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider(),
			Meter:    noopmetric.NewMeterProvider(),
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(otlpEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(otlpEndpoint)}
	if insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return Providers{}, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return Providers{}, fmt.Errorf("create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	return Providers{
		Tracer: tp,
		Meter:  mp,
		Shutdown: func(shutdownCtx context.Context) error {
			traceErr := tp.Shutdown(shutdownCtx)
			metricErr := mp.Shutdown(shutdownCtx)
			if traceErr != nil {
				return traceErr
			}
			return metricErr
		},
	}, nil
}
