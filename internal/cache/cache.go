// Package cache keeps built document handles keyed by document identity.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache is a TTL cache of immutable values. Readers never block each other;
// a writer replaces the stored value, it never mutates it in place.
type Cache[V any] struct {
	items *gocache.Cache
	group singleflight.Group
}

// New creates a cache whose entries expire after ttl; ttl <= 0 keeps them forever.
func New[V any](ttl time.Duration) *Cache[V] {
	expiration, cleanup := ttl, ttl
	if ttl <= 0 {
		expiration, cleanup = gocache.NoExpiration, 0
	}
	return &Cache[V]{items: gocache.New(expiration, cleanup)}
}

// Get returns the value stored for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	if val, found := c.items.Get(key); found {
		return val.(V), true
	}
	var zero V
	return zero, false
}

// Swap stores v for key and returns the value it replaced, if any.
func (c *Cache[V]) Swap(key string, v V) (V, bool) {
	old, found := c.Get(key)
	c.items.SetDefault(key, v)
	return old, found
}

// Load returns the cached value for key or computes it with fn. Concurrent
// callers for the same key share a single fn call.
func (c *Cache[V]) Load(key string, fn func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		// a Swap that landed while fn ran holds the newer value
		if err := c.items.Add(key, v, gocache.DefaultExpiration); err != nil {
			if cur, ok := c.Get(key); ok {
				return cur, nil
			}
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Delete drops the entry for key.
func (c *Cache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Len counts entries, including expired ones not yet cleaned up.
func (c *Cache[V]) Len() int {
	return c.items.ItemCount()
}

// Flush removes every entry.
func (c *Cache[V]) Flush() {
	c.items.Flush()
}
