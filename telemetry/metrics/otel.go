package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelProvider mirrors PrometheusProvider's observations through an
// OpenTelemetry Meter, for deployments pushing metrics to an OTLP
// collector instead of (or alongside) a Prometheus scrape target.
type OTelProvider struct {
	dispatchResults      metric.Int64Counter
	deliveryDuration     metric.Float64Histogram
	circuitTrips         metric.Int64Counter
	sampleBytes          metric.Int64Histogram
	lifecycleTransitions metric.Int64Counter
}

// NewOTelProvider creates the instruments from meter. Returns an error if
// any instrument registration fails.
func NewOTelProvider(meter metric.Meter) (*OTelProvider, error) {
	dispatchResults, err := meter.Int64Counter("moversentinel.dispatch.results")
	if err != nil {
		return nil, err
	}
	deliveryDuration, err := meter.Float64Histogram("moversentinel.dispatch.delivery_ms")
	if err != nil {
		return nil, err
	}
	circuitTrips, err := meter.Int64Counter("moversentinel.circuit.trips")
	if err != nil {
		return nil, err
	}
	sampleBytes, err := meter.Int64Histogram("moversentinel.sample.bytes")
	if err != nil {
		return nil, err
	}
	lifecycleTransitions, err := meter.Int64Counter("moversentinel.lifecycle.transitions")
	if err != nil {
		return nil, err
	}

	return &OTelProvider{
		dispatchResults:      dispatchResults,
		deliveryDuration:     deliveryDuration,
		circuitTrips:         circuitTrips,
		sampleBytes:          sampleBytes,
		lifecycleTransitions: lifecycleTransitions,
	}, nil
}

func (o *OTelProvider) IncDispatchResult(providerID string, success bool) {
	o.dispatchResults.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("provider", providerID), attribute.Bool("success", success)))
}

func (o *OTelProvider) ObserveDeliveryMS(providerID string, ms float64) {
	o.deliveryDuration.Record(context.Background(), ms, metric.WithAttributes(attribute.String("provider", providerID)))
}

func (o *OTelProvider) IncCircuitTrip(url string) {
	o.circuitTrips.Add(context.Background(), 1, metric.WithAttributes(attribute.String("url", url)))
}

func (o *OTelProvider) ObserveSampleBytes(bytes int64) {
	o.sampleBytes.Record(context.Background(), bytes)
}

func (o *OTelProvider) IncLifecycleTransition(from, to string) {
	o.lifecycleTransitions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("from", from), attribute.String("to", to)))
}
