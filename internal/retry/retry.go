package retry

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts bounds total tries, including the first.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait after the first failed attempt; attempt k
	// (0-indexed) waits baseDelay << k.
	DefaultBaseDelay = time.Second
)

// Policy executes operations with bounded retries.
type Policy struct {
	// MaxAttempts caps total tries. Values below 1 mean a single attempt.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff schedule.
	BaseDelay time.Duration
	// Classify reports whether an error is transient and worth retrying.
	// A nil Classify retries nothing.
	Classify func(error) bool
	// Sleep waits between attempts; overridable in tests.
	Sleep func(context.Context, time.Duration) error
}

// Default returns a policy with the standard schedule and the given
// classifier.
func Default(classify func(error) bool) Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Classify:    classify,
	}
}

// Do runs op, retrying transient failures with exponential backoff. It
// returns nil on the first success, the terminal error as soon as one is
// seen, or the last transient error once attempts are exhausted.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Classify == nil || !p.Classify(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, base<<attempt); err != nil {
			return err
		}
	}
	return lastErr
}

// SleepWithContext blocks for d, returning early when ctx is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
