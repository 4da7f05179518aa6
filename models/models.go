// Package models holds the shared data types passed between the
// monitoring, calculation, registry and dispatch layers.
package models

import "time"

// DiskSample is an immutable point-in-time byte-usage reading for a set
// of monitored roots.
type DiskSample struct {
	Timestamp time.Time
	BytesUsed int64
	PathLabel string
}

// ProgressData is a fully populated progress calculation for a cycle.
// total_bytes is fixed at cycle start; moved+remaining always equals it.
type ProgressData struct {
	Percent            float64
	RemainingBytes     int64
	MovedBytes         int64
	TotalBytes         int64
	RateBytesPerSecond float64
	ETC                *time.Time
}

// EventType enumerates the lifecycle stages a NotificationData can report.
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
)

// NotificationData carries already human-formatted progress fields plus
// the cycle-scoped correlation id, ready to hand to any Provider.
type NotificationData struct {
	EventType     EventType
	Percent       float64
	RemainingData string
	MovedData     string
	TotalData     string
	Rate          string
	ETCTimestamp  *time.Time
	CorrelationID string
}

// MoverState is a lifecycle state of the monitored mover process.
type MoverState string

const (
	StateWaiting    MoverState = "WAITING"
	StateStarted    MoverState = "STARTED"
	StateMonitoring MoverState = "MONITORING"
	StateCompleted  MoverState = "COMPLETED"
)

// MoverLifecycleEvent is one state transition observed from the PID file.
type MoverLifecycleEvent struct {
	PreviousState MoverState
	NewState      MoverState
	PID           int
}

// ProviderHealth is the registry-owned health record for one provider.
// Mutated only through registry operations.
type ProviderHealth struct {
	IsHealthy           bool
	ConsecutiveFailures int
	LastCheckTimestamp  time.Time
	LastErrorMessage    string
}

// CircuitState is one of the three states of a per-URL circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreakerState is the HTTP transport's per-URL breaker state.
type CircuitBreakerState struct {
	ConsecutiveFailures int
	LastFailureTime     time.Time
	State               CircuitState
}

// NotificationResult is the per-provider outcome of one dispatch attempt.
type NotificationResult struct {
	Success            bool
	ProviderIdentifier string
	ErrorMessage       string
	DeliveryTimeMS     float64
	ShouldRetry        bool
}

// Response is a completed HTTP exchange, successful or not.
type Response struct {
	Status  int
	Body    []byte
	Headers map[string][]string
}
