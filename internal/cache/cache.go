// Package cache implements an in-memory cache for rendered popup markup.
// Live sessions render the same popup body for every connected client; the
// cache lets a session reuse the rendered HTML until the inputs change.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache stores rendered artifacts keyed by an input digest
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	maxBytes int64
	maxAge   time.Duration
	strategy EvictionStrategy
	stats    *Stats
	stopCh   chan struct{}
}

// Entry is a single cached artifact
type Entry struct {
	Key         string
	Data        []byte
	Created     time.Time
	LastAccess  time.Time
	AccessCount int
}

// Stats is a snapshot of cache performance metrics. All fields are guarded
// by the cache's own lock; Stats itself is a plain value.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	TotalBytes int64
	EntryCount int
}

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// Config holds cache configuration
type Config struct {
	MaxBytes int64            // Byte budget across all entries (default: 16MB)
	MaxAge   time.Duration    // Maximum age for cache entries (default: 1 hour)
	Strategy EvictionStrategy // Eviction strategy (default: LRU)
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxBytes: 16 << 20,
		MaxAge:   time.Hour,
		Strategy: LRU,
	}
}

// New creates a cache and starts its background expiry sweep
func New(config Config) *Cache {
	if config.MaxBytes == 0 {
		config = DefaultConfig()
	}

	c := &Cache{
		entries:  make(map[string]*Entry),
		maxBytes: config.MaxBytes,
		maxAge:   config.MaxAge,
		strategy: config.Strategy,
		stats:    &Stats{},
		stopCh:   make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a cached artifact
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if c.isExpired(entry) {
		c.Delete(key)
		c.recordMiss()
		return nil, false
	}

	c.mu.Lock()
	entry.LastAccess = time.Now()
	entry.AccessCount++
	c.mu.Unlock()

	c.recordHit()
	return entry.Data, true
}

// Put stores an artifact in the cache
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.stats.TotalBytes -= int64(len(old.Data))
	}

	c.evictForLocked(int64(len(data)))

	now := time.Now()
	c.entries[key] = &Entry{
		Key:        key,
		Data:       data,
		Created:    now,
		LastAccess: now,
	}
	c.stats.TotalBytes += int64(len(data))
	c.stats.EntryCount = len(c.entries)
}

// Delete removes an entry from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return
	}

	delete(c.entries, key)
	c.stats.TotalBytes -= int64(len(entry.Data))
	c.stats.EntryCount = len(c.entries)
}

// Clear removes all cached entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.stats.TotalBytes = 0
	c.stats.EntryCount = 0
}

// GetStats returns a snapshot of cache statistics
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.stats
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) isExpired(entry *Entry) bool {
	// maxAge <= 0 means entries never expire
	if c.maxAge <= 0 {
		return false
	}
	return time.Since(entry.Created) > c.maxAge
}

// evictForLocked frees space for an incoming entry. Caller holds c.mu.
func (c *Cache) evictForLocked(needed int64) {
	if c.maxBytes <= 0 {
		return
	}

	for c.stats.TotalBytes+needed > c.maxBytes && len(c.entries) > 0 {
		var evictKey string
		var evict *Entry

		switch c.strategy {
		case LRU:
			for key, entry := range c.entries {
				if evict == nil || entry.LastAccess.Before(evict.LastAccess) {
					evictKey = key
					evict = entry
				}
			}

		case LFU:
			for key, entry := range c.entries {
				if evict == nil || entry.AccessCount < evict.AccessCount {
					evictKey = key
					evict = entry
				}
			}

		case FIFO:
			for key, entry := range c.entries {
				if evict == nil || entry.Created.Before(evict.Created) {
					evictKey = key
					evict = entry
				}
			}
		}

		if evict == nil {
			break
		}

		delete(c.entries, evictKey)
		c.stats.TotalBytes -= int64(len(evict.Data))
		c.stats.Evictions++
	}

	c.stats.EntryCount = len(c.entries)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if c.isExpired(entry) {
					delete(c.entries, key)
					c.stats.TotalBytes -= int64(len(entry.Data))
				}
			}
			c.stats.EntryCount = len(c.entries)
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the background expiry sweep
func (c *Cache) Close() {
	close(c.stopCh)
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
