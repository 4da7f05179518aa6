package metrics

import "testing"

type recordingProvider struct {
	dispatchCalls int
}

func (r *recordingProvider) IncDispatchResult(string, bool)        { r.dispatchCalls++ }
func (r *recordingProvider) ObserveDeliveryMS(string, float64)     {}
func (r *recordingProvider) IncCircuitTrip(string)                 {}
func (r *recordingProvider) ObserveSampleBytes(int64)              {}
func (r *recordingProvider) IncLifecycleTransition(string, string) {}

func TestMultiFansOutToAllBackends(t *testing.T) {
	a := &recordingProvider{}
	b := &recordingProvider{}
	m := Multi{Backends: []Provider{a, b, NoopProvider{}}}

	m.IncDispatchResult("hook", true)

	if a.dispatchCalls != 1 || b.dispatchCalls != 1 {
		t.Fatalf("expected both backends recorded once, got a=%d b=%d", a.dispatchCalls, b.dispatchCalls)
	}
}

func TestNoopProviderNeverPanics(t *testing.T) {
	var p Provider = NoopProvider{}
	p.IncDispatchResult("x", false)
	p.ObserveDeliveryMS("x", 1.0)
	p.IncCircuitTrip("url")
	p.ObserveSampleBytes(100)
	p.IncLifecycleTransition("WAITING", "STARTED")
}
