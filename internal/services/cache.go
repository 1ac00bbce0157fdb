package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a size-bounded map whose entries expire after a fixed duration.
// Expired entries are swept by a background goroutine until Stop is called.
type TTLCache[K comparable, V any] struct {
	name            string
	mu              sync.RWMutex
	items           map[K]cacheItem[V]
	group           singleflight.Group
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	hits, misses    atomic.Int64
}

func NewTTLCache[K comparable, V any](name string, defaultDuration time.Duration, maxSize int, logger *zap.Logger) *TTLCache[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	cleanup := time.Minute
	if defaultDuration > 0 && defaultDuration < cleanup {
		cleanup = defaultDuration
	}

	cache := &TTLCache[K, V]{
		name:            name,
		items:           make(map[K]cacheItem[V]),
		logger:          logger.With(zap.String("cache", name)),
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: cleanup,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := time.Now().Add(c.defaultDuration)
	c.items[key] = cacheItem[V]{value: value, expiresAt: expiresAt}

	c.logger.Debug("Entry cached",
		zap.Any("key", key),
		zap.Time("expires_at", expiresAt))
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.misses.Add(1)
		return zero, false
	}

	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return item.value, true
}

// GetOrLoad returns a cached value or runs load once for concurrent callers of
// the same key. The loaded value is stored only when load reports it cacheable.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, bool)) V {
	if v, ok := c.Get(key); ok {
		return v
	}

	v, _, _ := c.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		value, cacheable := load()
		if cacheable {
			c.Set(key, value)
		}
		return value, nil
	})
	return v.(V)
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TTLCache[K, V]) evictOldest() {
	var oldestKey K
	var oldestTime time.Time
	found := false

	for key, item := range c.items {
		if !found || item.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.expiresAt
			found = true
		}
	}

	if found {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest entry from cache", zap.Any("key", oldestKey))
	}
}

func (c *TTLCache[K, V]) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *TTLCache[K, V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items", zap.Int("count", expiredCount))
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *TTLCache[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"name":             c.name,
		"items":            len(c.items),
		"hits":             c.hits.Load(),
		"misses":           c.misses.Load(),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
