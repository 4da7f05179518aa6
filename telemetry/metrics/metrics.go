// Package metrics exposes dispatch and transport counters through two
// backends behind one interface: Prometheus (scraped via adminhttp) and
// OpenTelemetry (pushed through whatever exporter the deployment wires
// up). Callers depend only on Provider.
package metrics

// Provider is the metrics surface the orchestrator, dispatcher and
// transport record against.
type Provider interface {
	IncDispatchResult(providerID string, success bool)
	ObserveDeliveryMS(providerID string, ms float64)
	IncCircuitTrip(url string)
	ObserveSampleBytes(bytes int64)
	IncLifecycleTransition(from, to string)
}

// NoopProvider discards every observation. Used as the default when no
// backend is configured, so call sites never need a nil check.
type NoopProvider struct{}

func (NoopProvider) IncDispatchResult(string, bool)        {}
func (NoopProvider) ObserveDeliveryMS(string, float64)     {}
func (NoopProvider) IncCircuitTrip(string)                 {}
func (NoopProvider) ObserveSampleBytes(int64)              {}
func (NoopProvider) IncLifecycleTransition(string, string) {}

// Multi fans every observation out to all of its backends, letting a
// deployment run Prometheus and OTel side by side.
type Multi struct {
	Backends []Provider
}

func (m Multi) IncDispatchResult(providerID string, success bool) {
	for _, b := range m.Backends {
		b.IncDispatchResult(providerID, success)
	}
}

func (m Multi) ObserveDeliveryMS(providerID string, ms float64) {
	for _, b := range m.Backends {
		b.ObserveDeliveryMS(providerID, ms)
	}
}

func (m Multi) IncCircuitTrip(url string) {
	for _, b := range m.Backends {
		b.IncCircuitTrip(url)
	}
}

func (m Multi) ObserveSampleBytes(bytes int64) {
	for _, b := range m.Backends {
		b.ObserveSampleBytes(bytes)
	}
}

func (m Multi) IncLifecycleTransition(from, to string) {
	for _, b := range m.Backends {
		b.IncLifecycleTransition(from, to)
	}
}
