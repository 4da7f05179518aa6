// Package calculator implements the pure, stateless progress-calculation
// primitives the orchestrator composes once per monitoring cycle.
package calculator

import (
	"fmt"
	"time"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
)

// Percent returns the completion percentage for a cycle whose baseline
// (starting) usage and current usage are both given in bytes. A baseline
// of zero means there is nothing to move, so it always reports complete.
// current >= baseline means no progress has been observed yet (the mover
// hasn't reduced usage, or usage has grown), so it reports zero.
func Percent(baseline, current int64) float64 {
	if baseline == 0 {
		return 100.0
	}
	if current >= baseline {
		return 0.0
	}
	pct := float64(baseline-current) / float64(baseline) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Remaining returns the byte count still to move: current clamped into
// [0, baseline].
func Remaining(baseline, current int64) int64 {
	if current < 0 {
		return 0
	}
	if current > baseline {
		return baseline
	}
	return current
}

// Rate computes the mean transfer rate in bytes/second across the last
// windowSize samples. windowSize must be at least 2; smaller values fail
// with errkind.InvalidArgument. Pairs with a non-positive time delta or a
// non-positive byte-usage delta (usage held steady or grew) are skipped.
// Returns 0 if no pair is valid or fewer than two samples are available.
func Rate(samples []models.DiskSample, windowSize int) (float64, error) {
	if windowSize < 2 {
		return 0, errkind.New(errkind.InvalidArgument, "calculator.Rate", fmt.Errorf("window_size must be >= 2, got %d", windowSize))
	}
	if len(samples) < 2 {
		return 0, nil
	}

	window := samples
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}

	var sum float64
	var count int
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		db := prev.BytesUsed - cur.BytesUsed
		if db <= 0 {
			continue
		}
		sum += float64(db) / dt
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// ETC returns the estimated completion time for remainingBytes moving at
// rate bytes/second. A zero rate yields no estimate (nil, nil); a
// negative rate fails with errkind.InvalidArgument.
func ETC(remainingBytes int64, rate float64) (*time.Time, error) {
	if rate == 0 {
		return nil, nil
	}
	if rate < 0 {
		return nil, errkind.New(errkind.InvalidArgument, "calculator.ETC", fmt.Errorf("rate must be non-negative, got %v", rate))
	}
	eta := time.Now().Add(time.Duration(float64(remainingBytes) / rate * float64(time.Second)))
	return &eta, nil
}

// CalculateProgressData composes Percent, Remaining, Rate and ETC into a
// fully populated models.ProgressData for one cycle. total_bytes is fixed
// at the cycle's baseline; moved_bytes never goes negative.
func CalculateProgressData(baseline, current int64, samples []models.DiskSample, windowSize int) (models.ProgressData, error) {
	remaining := Remaining(baseline, current)
	moved := baseline - remaining
	if moved < 0 {
		moved = 0
	}

	rate, err := Rate(samples, windowSize)
	if err != nil {
		return models.ProgressData{}, err
	}

	etc, err := ETC(remaining, rate)
	if err != nil {
		return models.ProgressData{}, err
	}

	return models.ProgressData{
		Percent:            Percent(baseline, current),
		RemainingBytes:     remaining,
		MovedBytes:         moved,
		TotalBytes:         baseline,
		RateBytesPerSecond: rate,
		ETC:                etc,
	}, nil
}
