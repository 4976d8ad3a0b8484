package backoff

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy is a bounded, fixed-delay retry policy.
//
// With Enabled false exactly one attempt is made. With Enabled true the
// operation runs at most Count+1 times with Interval between attempts.
type Policy struct {
	Enabled  bool
	Interval time.Duration
	Count    int
}

// maxCount keeps Count+1 representable.
const maxCount = math.MaxInt - 1

// Attempts returns the total number of attempts the policy allows.
// Negative counts are treated as 0 and huge counts are clamped.
func (p Policy) Attempts() int {
	if !p.Enabled || p.Count <= 0 {
		return 1
	}

	return min(p.Count, maxCount) + 1
}

// Delay returns the wait before attempt (zero-based). The first attempt
// never waits.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.Interval < 0 {
		return 0
	}

	return p.Interval
}

// MaxWait is the worst-case time spent sleeping before the policy gives up.
func (p Policy) MaxWait() time.Duration {
	if p.Interval <= 0 {
		return 0
	}

	sleeps := int64(p.Attempts() - 1)
	if sleeps > math.MaxInt64/int64(p.Interval) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(sleeps) * p.Interval
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepWithContext sleeps for the specified duration but respects context cancellation.
// Returns nil if the sleep completes, or an error if the context is cancelled.
// Returns immediately (nil) for zero or negative durations.
func SleepWithContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
