package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock drives the limiter deterministically: sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

func TestWindowNeverExceedsLimit(t *testing.T) {
	const (
		limit  = 40
		window = 10 * time.Second
		calls  = 200
	)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(limit, window, limit, WithClock(clock.Now, clock.Sleep))

	var recorded []time.Time
	for i := 0; i < calls; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		recorded = append(recorded, clock.Now())
		l.Release()
		// Uneven arrival pattern to exercise the pruning logic.
		if i%3 == 0 {
			_ = clock.Sleep(context.Background(), 150*time.Millisecond)
		}
	}

	for i := range recorded {
		count := 1
		for j := i + 1; j < len(recorded); j++ {
			if recorded[j].Sub(recorded[i]) < window {
				count++
			} else {
				break
			}
		}
		if count > limit {
			t.Fatalf("trailing window starting at call %d holds %d calls (limit %d)", i, count, limit)
		}
	}
}

func TestAcquireWaitsWhenWindowFull(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(2, 10*time.Second, 2, WithClock(clock.Now, clock.Sleep))

	start := clock.Now()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		l.Release()
	}
	if waited := clock.Now().Sub(start); waited < 10*time.Second {
		t.Fatalf("third call should have waited for the window, advanced only %v", waited)
	}
}

func TestConcurrencyGateBoundsInFlight(t *testing.T) {
	const gate = 3
	l := New(1000, time.Second, gate)

	var inFlight, maxSeen atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			current := inFlight.Add(1)
			for {
				seen := maxSeen.Load()
				if current <= seen || maxSeen.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			l.Release()
		}()
	}
	wg.Wait()

	if got := maxSeen.Load(); got > gate {
		t.Fatalf("observed %d concurrent holders, gate is %d", got, gate)
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	l := New(1, time.Hour, 1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected cancellation error while window is saturated")
	}
}
