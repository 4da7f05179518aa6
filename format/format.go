// Package format renders byte counts, transfer rates and durations as
// the human strings NotificationData fields carry. The formatting rules
// are fixed; provider payloads depend on them verbatim.
package format

import (
	"fmt"
	"math"
)

const (
	unitKB = 1024
	unitMB = unitKB * 1024
	unitGB = unitMB * 1024
	unitTB = unitGB * 1024
)

// Size renders a non-negative byte count. Sub-terabyte values render as a
// floored integer ("512 MB"); terabyte and above render with the given
// decimal precision plus the integer gigabyte equivalent in parentheses
// ("2.5 TB (2560 GB)"). Pass precision < 0 for the default of 1.
func Size(bytesValue int64, precision int) (string, error) {
	if bytesValue < 0 {
		return "", fmt.Errorf("format size: bytes must be non-negative")
	}
	if precision < 0 {
		precision = 1
	}
	switch {
	case bytesValue < unitKB:
		return fmt.Sprintf("%d Bytes", bytesValue), nil
	case bytesValue < unitMB:
		return fmt.Sprintf("%d KB", bytesValue/unitKB), nil
	case bytesValue < unitGB:
		return fmt.Sprintf("%d MB", bytesValue/unitMB), nil
	case bytesValue < unitTB:
		return fmt.Sprintf("%d GB", bytesValue/unitGB), nil
	default:
		tb := float64(bytesValue) / float64(unitTB)
		gb := bytesValue / unitGB
		return fmt.Sprintf("%.*f TB (%d GB)", precision, tb, gb), nil
	}
}

// MustSize is Size with the default precision, panicking on a negative
// input. Callers inside this module only ever pass already-validated
// non-negative byte counts.
func MustSize(bytesValue int64) string {
	s, err := Size(bytesValue, -1)
	if err != nil {
		panic(err)
	}
	return s
}

// Rate renders a non-negative transfer rate in bytes/second. The
// Bytes/s band renders as a truncated integer; all other bands render
// with one fractional digit.
func Rate(bytesPerSecond float64) (string, error) {
	if bytesPerSecond < 0 {
		return "", fmt.Errorf("format rate: bytes_per_second must be non-negative")
	}
	switch {
	case bytesPerSecond < unitKB:
		return fmt.Sprintf("%d Bytes/s", int64(bytesPerSecond)), nil
	case bytesPerSecond < unitMB:
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/unitKB), nil
	case bytesPerSecond < unitGB:
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/unitMB), nil
	case bytesPerSecond < unitTB:
		return fmt.Sprintf("%.1f GB/s", bytesPerSecond/unitGB), nil
	default:
		return fmt.Sprintf("%.1f TB/s", bytesPerSecond/unitTB), nil
	}
}

// MustRate is Rate with the panic-on-negative convenience used when the
// caller has already validated non-negativity (e.g. from ProgressData).
func MustRate(bytesPerSecond float64) string {
	s, err := Rate(bytesPerSecond)
	if err != nil {
		panic(err)
	}
	return s
}

// Duration renders a non-negative duration in seconds using s/m/h/d
// suffixes, suppressing zero components and dropping sub-second
// precision. Only the largest unit and the unit directly below it are
// shown, and the lower one is dropped when it is zero (e.g. "1d 1h" or
// "1d", never "1d 1h 1m" or "1d 5m").
func Duration(seconds float64) (string, error) {
	if seconds < 0 {
		return "", fmt.Errorf("format duration: seconds must be non-negative")
	}
	total := int64(math.Floor(seconds))

	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total), nil
	case total < 3600:
		m := total / 60
		s := total % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m), nil
		}
		return fmt.Sprintf("%dm %ds", m, s), nil
	case total < 86400:
		h := total / 3600
		m := (total % 3600) / 60
		if m == 0 {
			return fmt.Sprintf("%dh", h), nil
		}
		return fmt.Sprintf("%dh %dm", h, m), nil
	default:
		d := total / 86400
		h := (total % 86400) / 3600
		if h == 0 {
			return fmt.Sprintf("%dd", d), nil
		}
		return fmt.Sprintf("%dd %dh", d, h), nil
	}
}
