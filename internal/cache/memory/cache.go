package memory

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultMaxEntries = 1000
	DefaultTTL        = 5 * time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a threadsafe bounded cache with per-entry TTL.
// Eviction follows insertion order: reads never refresh an entry.
// Expired entries are dropped when read; no background goroutine runs.
type Cache[K comparable, V any] struct {
	lru        *lru.Cache[K, entry[V]]
	ttl        time.Duration
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// Stats is a point-in-time view of a Cache.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

func New[K comparable, V any](maxEntries int, ttl time.Duration) *Cache[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// lru.New only fails for a non-positive size, excluded above.
	l, _ := lru.New[K, entry[V]](maxEntries)
	return &Cache[K, V]{
		lru:        l,
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	// Peek keeps the entry's position so the oldest write is evicted first.
	e, ok := c.lru.Peek(key)
	if ok && time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)})
}

func (c *Cache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.lru.Remove(key)
}

func (c *Cache[K, V]) Clear() {
	if c == nil {
		return
	}
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *Cache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache[K, V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Size:    c.lru.Len(),
		MaxSize: c.maxEntries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
