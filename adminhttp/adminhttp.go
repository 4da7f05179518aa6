// Package adminhttp exposes the operational HTTP surface: a /healthz
// rollup of provider health (circuit-breaker states are not reported
// there), and a /metricz scrape
// endpoint for the Prometheus backend. Thin net/http handlers wrapping
// the registry and a health.Evaluator.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/engels74/moversentinel/registry"
	"github.com/engels74/moversentinel/telemetry/health"
)

// Server bundles the admin endpoints behind one http.Handler.
type Server struct {
	evaluator *health.Evaluator
	registry  *registry.Registry
	gatherer  prometheus.Gatherer
}

// New constructs a Server. A nil gatherer disables /metricz (e.g. when
// only the OTel push backend is configured).
func New(evaluator *health.Evaluator, reg *registry.Registry, gatherer prometheus.Gatherer) *Server {
	return &Server{evaluator: evaluator, registry: reg, gatherer: gatherer}
}

// Handler returns the mux serving /healthz and /metricz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		mux.Handle("/metricz", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

type healthzResponse struct {
	Status    string                  `json:"status"`
	Providers []providerHealthPayload `json:"providers"`
}

type providerHealthPayload struct {
	ID                  string `json:"id"`
	IsHealthy           bool   `json:"is_healthy"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastErrorMessage    string `json:"last_error_message,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status, _ := s.evaluator.Evaluate(r.Context())

	entries := s.registry.All()
	providersPayload := make([]providerHealthPayload, 0, len(entries))
	for _, e := range entries {
		providersPayload = append(providersPayload, providerHealthPayload{
			ID:                  e.ID,
			IsHealthy:           e.Health.IsHealthy,
			ConsecutiveFailures: e.Health.ConsecutiveFailures,
			LastErrorMessage:    e.Health.LastErrorMessage,
		})
	}

	resp := healthzResponse{Status: string(status), Providers: providersPayload}

	w.Header().Set("Content-Type", "application/json")
	if status == health.StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(resp)
}
