package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	val       V
	expiresAt time.Time
}

// Cache is a small TTL map used to front repeated verifications (bearer
// tokens, JWKS lookups). Expired entries are dropped lazily on read and
// opportunistically on write.
type Cache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]item[V]
	ttl  time.Duration
}

func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{data: make(map[K]item[V]), ttl: ttl}
}

func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	it, ok := c.data[k]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		delete(c.data, k)
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return it.val, true
}

// Set stores v under k with the cache's default TTL.
func (c *Cache[K, V]) Set(k K, v V) {
	c.SetUntil(k, v, time.Now().Add(c.ttl))
}

func (c *Cache[K, V]) SetUntil(k K, v V, expiresAt time.Time) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.data {
		if now.After(it.expiresAt) {
			delete(c.data, key)
		}
	}
	c.data[k] = item[V]{val: v, expiresAt: expiresAt}
}

func (c *Cache[K, V]) Delete(k K) {
	c.mu.Lock()
	delete(c.data, k)
	c.mu.Unlock()
}
