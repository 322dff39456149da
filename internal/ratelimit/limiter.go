package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Default limits match the TMDB free tier: 40 requests per 10 seconds, with
// at most 4 requests in flight at once.
const (
	DefaultLimit       = 40
	DefaultWindow      = 10 * time.Second
	DefaultConcurrency = 4
)

// Limiter grants permission to make outbound calls. Acquire blocks (never
// errors, except on context cancellation) until a call fits both the
// in-flight gate and the trailing window quota. Callers must Release once
// the network call has finished.
type Limiter struct {
	limit  int
	window time.Duration
	gate   *semaphore.Weighted

	mu    sync.Mutex
	calls []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source and sleep function, used by tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New creates a limiter allowing limit calls per window with at most
// concurrency calls in flight. Non-positive arguments fall back to defaults.
func New(limit int, window time.Duration, concurrency int, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		gate:   semaphore.NewWeighted(int64(concurrency)),
		calls:  make([]time.Time, 0, limit),
		now:    time.Now,
		sleep:  sleepWithContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until issuing one call keeps the trailing-window count at
// or below the limit, then records the call timestamp. The caller must make
// the call promptly and invoke Release afterwards.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		// The oldest recorded call bounds how long until the window frees
		// one slot.
		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			l.gate.Release(1)
			return err
		}
	}
}

// Release frees the in-flight slot taken by Acquire.
func (l *Limiter) Release() {
	l.gate.Release(1)
}

// InWindow reports how many calls are currently recorded inside the
// trailing window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// prune drops timestamps that have aged out of the window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.calls) && !l.calls[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.calls = append(l.calls[:0], l.calls[idx:]...)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
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
