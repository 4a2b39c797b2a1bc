package cache

import (
	"context"
	"sync"
	"time"
)

type CacheItem struct {
	Value      string
	Expiration int64
}

// LocalCache is an in-process string cache with per-entry expiry. It backs the
// "memory" cache driver.
type LocalCache struct {
	items   map[string]CacheItem
	mu      sync.RWMutex
	maxSize int
	now     func() time.Time

	stop chan struct{}
	once sync.Once

	// Metrics
	hitsMu sync.RWMutex
	hits   int64
	misses int64
}

func NewLocalCache(maxSize int, cleanupInterval time.Duration) *LocalCache {
	cache := &LocalCache{
		items:   make(map[string]CacheItem),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanup(cleanupInterval)
	}

	return cache
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || c.now().UnixNano() > item.Expiration {
		c.incrementMisses()
		return "", false, nil
	}

	c.incrementHits()
	return item.Value, true, nil
}

func (c *LocalCache) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple eviction if cache is full
	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictLocked()
	}

	c.items[key] = CacheItem{
		Value:      value,
		Expiration: c.now().Add(ttl).UnixNano(),
	}
	return nil
}

// evictLocked drops expired entries, or one arbitrary entry if none expired.
func (c *LocalCache) evictLocked() {
	now := c.now().UnixNano()
	removed := false
	for k, item := range c.items {
		if now > item.Expiration {
			delete(c.items, k)
			removed = true
		}
	}
	if removed {
		return
	}
	for k := range c.items {
		delete(c.items, k)
		break
	}
}

func (c *LocalCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *LocalCache) Health(ctx context.Context) error {
	return ctx.Err()
}

func (c *LocalCache) incrementHits() {
	c.hitsMu.Lock()
	defer c.hitsMu.Unlock()
	c.hits++
}

func (c *LocalCache) incrementMisses() {
	c.hitsMu.Lock()
	defer c.hitsMu.Unlock()
	c.misses++
}

func (c *LocalCache) HitRate() float64 {
	c.hitsMu.RLock()
	defer c.hitsMu.RUnlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0.0
	}
	return float64(c.hits) / float64(total)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *LocalCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *LocalCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *LocalCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for key, item := range c.items {
		if now > item.Expiration {
			delete(c.items, key)
		}
	}
}
