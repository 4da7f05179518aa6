package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider records observations against a set of Prometheus
// collectors registered with the given Registerer (the run command
// passes a dedicated *prometheus.Registry, which adminhttp serves).
type PrometheusProvider struct {
	dispatchResults      *prometheus.CounterVec
	deliveryDuration     *prometheus.HistogramVec
	circuitTrips         *prometheus.CounterVec
	sampleBytes          prometheus.Histogram
	lifecycleTransitions *prometheus.CounterVec
}

// NewPrometheusProvider registers its collectors with reg and returns the
// ready-to-use provider.
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	p := &PrometheusProvider{
		dispatchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moversentinel",
			Name:      "dispatch_results_total",
			Help:      "Count of notification dispatch attempts by provider and outcome.",
		}, []string{"provider", "success"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moversentinel",
			Name:      "dispatch_delivery_milliseconds",
			Help:      "Delivery latency per provider in milliseconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		circuitTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moversentinel",
			Name:      "circuit_trips_total",
			Help:      "Count of circuit breaker trips by url.",
		}, []string{"url"}),
		sampleBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "moversentinel",
			Name:      "sample_bytes",
			Help:      "Distribution of disk sample byte totals.",
		}),
		lifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moversentinel",
			Name:      "lifecycle_transitions_total",
			Help:      "Count of mover lifecycle transitions by from/to state.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(p.dispatchResults, p.deliveryDuration, p.circuitTrips, p.sampleBytes, p.lifecycleTransitions)
	return p
}

func (p *PrometheusProvider) IncDispatchResult(providerID string, success bool) {
	p.dispatchResults.WithLabelValues(providerID, boolLabel(success)).Inc()
}

func (p *PrometheusProvider) ObserveDeliveryMS(providerID string, ms float64) {
	p.deliveryDuration.WithLabelValues(providerID).Observe(ms)
}

func (p *PrometheusProvider) IncCircuitTrip(url string) {
	p.circuitTrips.WithLabelValues(url).Inc()
}

func (p *PrometheusProvider) ObserveSampleBytes(bytes int64) {
	p.sampleBytes.Observe(float64(bytes))
}

func (p *PrometheusProvider) IncLifecycleTransition(from, to string) {
	p.lifecycleTransitions.WithLabelValues(from, to).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
