// Package cache provides a small in-process TTL cache used for hot,
// cheap-to-rebuild reads such as credit balances. Entries expire lazily on
// access; callers invalidate explicitly after writes.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a concurrency-safe map with per-cache expiry.
// The zero value is not usable; construct with New.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[K]entry[V]
	now     func() time.Time
}

// New creates a TTL cache whose entries expire ttl after being set.
// A non-positive ttl disables caching: Get never hits.
func New[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key and whether it was present and
// unexpired. Expired entries are removed on access.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have raced in.
		if cur, stillThere := c.entries[key]; stillThere && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, replacing any existing entry.
func (c *TTL[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate removes the entry for key, if any.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
