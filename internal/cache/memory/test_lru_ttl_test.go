package memory

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRUTTLEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUTTLWithOptions[string, int](2, 0, time.Minute, Options[string, int]{
		OnEvict: func(k string, _ int) { evicted = append(evicted, k) },
	})
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestLRUTTLByteBudget(t *testing.T) {
	c := NewLRUTTL[string, []byte](10, 8, time.Minute)
	c.Set("a", []byte("aaaa"), 4)
	c.Set("b", []byte("bbbb"), 4)
	c.Set("c", []byte("cccc"), 4)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted by byte budget")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to remain")
	}
}

func TestLRUTTLExpiryAndSliding(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	var evicted []string
	fixed := NewLRUTTLWithOptions[string, int](8, 0, time.Minute, Options[string, int]{Now: clock.Now})
	sliding := NewLRUTTLWithOptions[string, int](8, 0, time.Minute, Options[string, int]{
		Now:     clock.Now,
		Sliding: true,
		OnEvict: func(k string, _ int) { evicted = append(evicted, k) },
	})
	fixed.Set("k", 1, 0)
	sliding.Set("k", 1, 0)

	clock.Advance(40 * time.Second)
	if _, ok := fixed.Get("k"); !ok {
		t.Fatalf("fixed: expected hit before ttl")
	}
	if _, ok := sliding.Get("k"); !ok {
		t.Fatalf("sliding: expected hit before ttl")
	}

	clock.Advance(40 * time.Second)
	if _, ok := fixed.Get("k"); ok {
		t.Fatalf("fixed: expected miss after ttl")
	}
	if _, ok := sliding.Get("k"); !ok {
		t.Fatalf("sliding: expected hit, last access renewed the ttl")
	}

	clock.Advance(2 * time.Minute)
	if n := sliding.Sweep(); n != 1 {
		t.Fatalf("expected sweep to drop 1 entry, got %d", n)
	}
	if len(evicted) != 1 || evicted[0] != "k" {
		t.Fatalf("expected eviction callback for k, got %v", evicted)
	}
}

func TestLRUTTLDeleteSkipsCallback(t *testing.T) {
	called := false
	c := NewLRUTTLWithOptions[int, int](4, 0, time.Minute, Options[int, int]{
		OnEvict: func(int, int) { called = true },
	})
	c.Set(1, 1, 0)
	c.Delete(1)
	c.Clear()
	if called {
		t.Fatalf("delete and clear must not call OnEvict")
	}
	var nilCache *LRUTTL[int, int]
	if _, ok := nilCache.Get(1); ok {
		t.Fatalf("nil cache must miss")
	}
}

func TestLRUTTLSetUntilKeepsExplicitExpiry(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewLRUTTLWithOptions[string, int](4, 0, time.Hour, Options[string, int]{Now: clk.Now})

	c.SetUntil("short", 1, 0, clk.Now().Add(time.Second))
	c.Set("past", 2, 0)
	c.SetUntil("past", 3, 0, clk.Now().Add(-time.Second))
	if _, ok := c.Get("past"); ok {
		t.Fatalf("expiry in the past must drop the entry")
	}

	clk.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Fatalf("expected short to expire before the cache ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", c.Len())
	}
}
