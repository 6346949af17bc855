// Package cache provides a small in-memory TTL cache used for resolved
// identities and the employee directory.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	deadline time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return now.After(e.deadline)
}

// InMemory is a mutex-guarded map with a fixed TTL per entry. A
// background sweeper reclaims expired entries so a churning key set
// does not grow the map unbounded.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
}

// New creates a cache whose entries live for ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached value, or false when absent or expired.
// Expired entries are left for the sweeper.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, restarting its TTL.
func (c *InMemory[T]) Set(key string, value T) {
	e := entry[T]{value: value, deadline: time.Now().Add(c.ttl)}

	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
}

// Delete removes key, if present.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// sweep drops expired entries once per TTL period.
func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for now := range ticker.C {
		c.mu.Lock()
		for k, e := range c.items {
			if e.expired(now) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
