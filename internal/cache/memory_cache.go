package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return now.After(i.expiration)
}

// MemoryCache implements Cache interface using in-memory storage
type MemoryCache struct {
	mutex         sync.RWMutex
	items         map[string]*cacheItem
	maxMemory     int64
	currentMemory int64
	hits          int64
	misses        int64
	evictions     int64
	done          chan struct{}
	closeOnce     sync.Once
	closed        bool
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop.
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	c := &MemoryCache{
		items:     make(map[string]*cacheItem),
		maxMemory: config.MaxMemory,
		done:      make(chan struct{}),
	}

	interval := config.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go c.cleanupLoop(interval)

	return c
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	if c.closed {
		c.mutex.RUnlock()
		return nil, ErrCacheDisabled
	}
	item, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}

	if item.expired(time.Now()) {
		atomic.AddInt64(&c.misses, 1)
		c.mutex.Lock()
		if current, ok := c.items[key]; ok && current == item {
			c.remove(key, item)
		}
		c.mutex.Unlock()
		return nil, ErrKeyNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

// Set stores a value in cache with expiration
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrCacheDisabled
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	item := &cacheItem{value: valueCopy, expiration: time.Now().Add(ttl)}

	if old, ok := c.items[key]; ok {
		c.remove(key, old)
	}
	c.items[key] = item
	c.currentMemory += itemSize(key, item)
	c.evictIfNeeded(key)
	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if item, exists := c.items[key]; exists {
		c.remove(key, item)
	}
	return nil
}

// DeletePattern removes all keys matching the given pattern
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.items {
		if matchPattern(key, pattern) {
			c.remove(key, item)
		}
	}
	return nil
}

// Exists checks if a live key exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.items[key]
	if !exists || item.expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup loop and drops all entries.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mutex.Lock()
		c.items = make(map[string]*cacheItem)
		c.currentMemory = 0
		c.closed = true
		c.mutex.Unlock()
	})
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	var active int64
	for _, item := range c.items {
		if !item.expired(now) {
			active++
		}
	}

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	return CacheStats{
		Hits:        hits,
		Misses:      misses,
		HitRatio:    hitRatio(hits, misses),
		Keys:        active,
		MemoryUsage: c.currentMemory,
		Evictions:   atomic.LoadInt64(&c.evictions),
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCache) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if item.expired(now) {
			c.remove(key, item)
		}
	}
}

// evictIfNeeded drops expired entries first, then arbitrary ones, until under the limit.
// The entry just written is kept. Caller holds the write lock.
func (c *MemoryCache) evictIfNeeded(keep string) {
	if c.maxMemory <= 0 || c.currentMemory <= c.maxMemory {
		return
	}

	now := time.Now()
	for key, item := range c.items {
		if key != keep && item.expired(now) {
			c.remove(key, item)
			atomic.AddInt64(&c.evictions, 1)
		}
	}
	for key, item := range c.items {
		if c.currentMemory <= c.maxMemory {
			return
		}
		if key == keep {
			continue
		}
		c.remove(key, item)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// remove deletes an entry and updates the memory estimate. Caller holds the write lock.
func (c *MemoryCache) remove(key string, item *cacheItem) {
	delete(c.items, key)
	c.currentMemory -= itemSize(key, item)
}

func itemSize(key string, item *cacheItem) int64 {
	return int64(len(key) + len(item.value) + 64)
}

func hitRatio(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}

// matchPattern implements glob matching with the * wildcard only.
func matchPattern(text, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return text == pattern
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(text, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if !strings.HasSuffix(text, last) {
		return false
	}

	pos := len(parts[0])
	end := len(text) - len(last)
	if end < pos {
		return false
	}
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(text[pos:end], part)
		if idx == -1 {
			return false
		}
		pos += idx + len(part)
	}
	return true
}
