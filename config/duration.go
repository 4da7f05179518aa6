package config

import (
	"fmt"
	"time"
)

// durationValue lets YAML documents express intervals as "30s"/"2m"
// strings instead of raw nanosecond integers.
type durationValue struct {
	time.Duration
}

func (d *durationValue) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d durationValue) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
