package memory

import (
	"runtime"
	"testing"
	"time"
)

func TestCacheEvictsOldestInserted(t *testing.T) {
	c := New[string, int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// A read must not protect "a": eviction is by insertion order.
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("get a = %v, %v", v, ok)
	}
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("get b = %v, %v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("get c = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[string, string](10, 20*time.Millisecond)
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	c := New[string, int](0, 0)
	c.Set("x", 1)
	c.Get("x")
	c.Get("y")

	st := c.Stats()
	if st.MaxSize != DefaultMaxEntries || st.Size != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.Hits != 1 || st.Misses != 1 || st.HitRate != 0.5 {
		t.Fatalf("unexpected counters: %+v", st)
	}

	c.Delete("x")
	if c.Len() != 0 {
		t.Fatalf("delete did not remove entry")
	}
	c.Set("z", 2)
	c.Clear()
	if st := c.Stats(); st.Size != 0 || st.Hits != 0 {
		t.Fatalf("clear left state: %+v", st)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache[string, int]
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache returned a value")
	}
	c.Delete("a")
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("nil cache len != 0")
	}
}

func TestCacheStartsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		c := New[string, int](10, time.Minute)
		c.Set("a", i)
		c.Clear()
	}
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Fatalf("goroutines grew from %d to %d", before, after)
	}
}
