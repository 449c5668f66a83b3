// Package cache provides an in-memory TTL cache with a get-or-fetch policy.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultExpiration is used when GetOrFetch is given a non-positive expiration.
const DefaultExpiration = 5 * time.Minute

// FetchFunc loads a fresh value for a key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry[V]) validAt(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// Cache is safe for concurrent use. Concurrent fetches for the same key are
// collapsed into one call; distinct keys never wait on each other.
type Cache[K ~string, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	group   singleflight.Group
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a cache. A positive cleanupInterval starts a janitor that purges
// expired entries until Close is called.
func New[K ~string, V any](cleanupInterval time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{
		entries: make(map[K]entry[V]),
		now:     o.now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch returns the cached value for key while it is younger than
// expiration, otherwise calls fetch and stores the result. Fetch errors are
// returned to the caller and never stored.
func (c *Cache[K, V]) GetOrFetch(ctx context.Context, key K, fetch FetchFunc[V], expiration time.Duration) (V, error) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < expiration {
		return e.value, nil
	}

	v, err, _ := c.group.Do(string(key), func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		c.mu.Lock()
		c.entries[key] = entry[V]{value: value, fetchedAt: c.now(), ttl: expiration}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	value, _ := v.(V)
	return value, nil
}

// Close stops the janitor. It is safe to call more than once.
func (c *Cache[K, V]) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
}

func (c *Cache[K, V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *Cache[K, V]) purge() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !e.validAt(now) {
			delete(c.entries, k)
		}
	}
}
