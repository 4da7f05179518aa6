// Package errkind classifies errors raised across moversentinel by the
// semantic kind a caller needs to react to, independent of which layer
// produced them.
package errkind

import "fmt"

// Kind enumerates the semantic error categories used throughout the
// monitoring, transport and dispatch layers.
type Kind string

const (
	InvalidArgument      Kind = "invalid_argument"
	ConfigurationInvalid Kind = "configuration_invalid"
	EnvironmentMissing   Kind = "environment_missing"
	IOUnavailable        Kind = "io_unavailable"
	Timeout              Kind = "timeout"
	Transport            Kind = "transport"
	CircuitOpen          Kind = "circuit_open"
	ProviderValidation   Kind = "provider_validation"
	ProviderExecution    Kind = "provider_execution"
	ProviderTimeout      Kind = "provider_timeout"
	MalformedURL         Kind = "malformed_url"
	ClientError          Kind = "client_error"
)

// Error wraps an underlying error with a Kind and the operation that
// produced it, so callers can recover the kind with errors.As regardless
// of how many layers re-wrapped the error with fmt.Errorf("%w", ...).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for the given kind/op/cause.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ke, ok := err.(*Error); ok {
			if ke.Kind == kind {
				return true
			}
			err = ke.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
