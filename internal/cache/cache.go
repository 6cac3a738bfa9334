package cache

import (
	"sync"
	"time"
)

// Freshness is a single-slot cache holding one value of type T plus the
// instant it was fetched. Each data kind (current conditions, forecast) owns
// its own instance; there is no keyed storage and no eviction beyond
// overwrite. Readers never observe a half-written value.
type Freshness[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	has       bool
}

// New creates an empty Freshness cache.
func New[T any]() *Freshness[T] {
	return &Freshness[T]{}
}

// Get returns the held value regardless of freshness. Callers decide the
// fallback policy; stale data is routinely served through this path.
func (c *Freshness[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.has
}

// IsFresh reports whether the held value was fetched less than ttl ago.
// A cache that has never been set is never fresh. The boundary is exclusive:
// now - fetchedAt == ttl is stale.
func (c *Freshness[T]) IsFresh(now time.Time, ttl time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has {
		return false
	}
	return now.Sub(c.fetchedAt) < ttl
}

// Set overwrites the slot unconditionally, recording now as the fetch time.
func (c *Freshness[T]) Set(value T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.fetchedAt = now
	c.has = true
}

// FetchedAt returns the fetch time of the held value, if any. The /health
// payload uses this to report cache ages.
func (c *Freshness[T]) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt, c.has
}
