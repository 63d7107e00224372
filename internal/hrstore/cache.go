package hrstore

import (
	"sync"
	"time"
)

// Cache is a TTL cache keyed by logical resource name. An entry is valid
// iff now - stored < ttl. A single mutex guards the whole map; contention
// is low and correctness matters more than throughput here.
//
// The fetch runs outside the lock, so two goroutines racing on the same
// expired key may both hit the store. That is allowed; the second write
// simply wins.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value any
	ts    time.Time
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached value for key, calling fetch on a miss or an
// expired entry. Fetch failures propagate and nothing is stored.
func (c *Cache) Get(key string, fetch func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.ts) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, ts: c.now()}
	c.mu.Unlock()
	return value, nil
}

// InvalidateAll drops every entry. Called after any mutation against the
// HR store.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
