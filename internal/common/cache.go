package common

import (
	"sync"
	"time"
)

// TTLCache is a mutex-guarded map with per-entry expiry. Analysis requests
// run concurrently against shared boundary caches (rendered charts, LLM
// liveness), so reads and writes must be safe under concurrent access.
// The clock is injectable so tests can control time.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]ttlEntry[V]
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTLCache creates a cache whose entries expire after ttl.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]ttlEntry[V]),
	}
}

// WithClock replaces the time source. Test hook.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns the cached value and whether it is present and unexpired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok || now.After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the cache's TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// Delete removes a key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes expired entries and returns how many were dropped.
func (c *TTLCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	dropped := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}
