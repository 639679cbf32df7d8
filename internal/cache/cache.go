package cache

import (
	"sync"
	"time"
)

// CacheItem represents a cached value with expiration
type CacheItem[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// IsExpired checks if the cache item has expired at now
func (c *CacheItem[V]) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]*CacheItem[V]
	ttl   time.Duration
	now   func() time.Time

	hits   uint64
	misses uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a new cache with the specified TTL and starts the
// background sweeper. Call Close to stop it.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]*CacheItem[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go c.cleanup(sweepInterval(ttl))

	return c
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}

// cleanup removes expired items periodically
func (c *Cache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for key, item := range c.items {
				if item.IsExpired(now) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Get retrieves an item from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists || item.IsExpired(c.now()) {
		if exists {
			delete(c.items, key)
		}
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return item.Value, true
}

// Set stores an item in the cache
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem[V]{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem[V])
}

// Size returns the number of items in the cache
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"hits":          c.hits,
		"misses":        c.misses,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Close stops the background sweeper. It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
