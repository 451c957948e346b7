package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"
)

type cacheEntry struct {
	bars      []model.Bar
	expiresAt time.Time
}

// Cache keeps fetched series in memory for a fixed TTL.
// Cached slices are shared between callers and must not be modified.
type Cache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCache creates a cache. A positive sweep interval starts a background
// goroutine that evicts expired entries until Close is called.
func NewCache(ttl, sweep time.Duration) *Cache {
	c := &Cache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go c.cleanup(sweep)
	}
	return c
}

// Get retrieves cached bars if present and not expired.
func (c *Cache) Get(key string) ([]model.Bar, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.bars, true
}

func (c *Cache) Set(key string, bars []model.Bar) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &cacheEntry{bars: bars, expiresAt: c.now().Add(c.ttl)}
}

func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

// Len counts entries, expired ones included until they are swept.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey derives a stable key from a query and a source name.
func CacheKey(source string, q Query) string {
	keyStr := fmt.Sprintf("%s|%s|%s|%d|%d",
		source,
		q.Symbol,
		q.Interval,
		q.Start.UnixMilli(),
		q.End.UnixMilli(),
	)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

// CachedSource serves repeated queries from a Cache.
type CachedSource struct {
	Source Source
	Cache  *Cache
	// Name distinguishes sources sharing one cache.
	Name string
}

func NewCachedSource(src Source, cache *Cache, name string) *CachedSource {
	return &CachedSource{Source: src, Cache: cache, Name: name}
}

func (s *CachedSource) Bars(ctx context.Context, q Query) ([]model.Bar, error) {
	key := CacheKey(s.Name, q)
	if bars, ok := s.Cache.Get(key); ok {
		logger.WithField("query", q.String()).Debugf("cache hit: %d bars", len(bars))
		return bars, nil
	}
	bars, err := s.Source.Bars(ctx, q)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(key, bars)
	return bars, nil
}
