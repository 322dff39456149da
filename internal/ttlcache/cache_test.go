package ttlcache

import (
	"sync"
	"testing"
	"time"
)

func TestGetAfterSetWithinTTL(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := New(WithClock(func() time.Time { return now }))

	c.Set("k", "value", 600*time.Second)

	got, ok := c.Get("k")
	if !ok || got.(string) != "value" {
		t.Fatalf("expected hit with stored value, got %v ok=%v", got, ok)
	}

	now = now.Add(599 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired before TTL elapsed")
	}
}

func TestGetAfterTTLElapsesMisses(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := New(WithClock(func() time.Time { return now }))

	c.Set("k", 42, 600*time.Second)
	now = now.Add(600 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not collected, len=%d", c.Len())
	}
}

func TestMissOnAbsentKey(t *testing.T) {
	c := New()
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear, len=%d", c.Len())
	}
}

func TestKeyNormalization(t *testing.T) {
	a := Key("search", "  The Matrix ", "1999")
	b := Key("search", "the matrix", "1999")
	if a != b {
		t.Fatalf("case/whitespace variants should share a key: %q vs %q", a, b)
	}
	if a == Key("details", "the matrix", "1999") {
		t.Fatal("different operations must not share a key")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Key("op", "shared")
			for j := 0; j < 100; j++ {
				c.Set(key, n, time.Minute)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if _, ok := c.Get(Key("op", "shared")); !ok {
		t.Fatal("expected value after concurrent writes")
	}
}
