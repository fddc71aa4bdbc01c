// Package cache keeps recent reports so repeated audits of the same URL can
// be answered without rendering the page again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/seoaudit/models"
)

// Store is a report cache. Lookups never fail: backend errors count as
// misses.
type Store interface {
	// Get returns the report stored under key if it is younger than maxAge.
	Get(ctx context.Context, key string, maxAge time.Duration) (*models.Report, bool)

	// Set stores rep under key.
	Set(ctx context.Context, key string, rep *models.Report)

	Close() error
}

// Key generates a cache key from the audited URL.
func Key(url string) string {
	h := sha256.New()
	h.Write([]byte("report|"))
	h.Write([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(h.Sum(nil))
}

// entry holds a cached report with its creation timestamp.
type entry struct {
	report    *models.Report
	createdAt time.Time
}

// Memory is a simple in-memory report cache.
// It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemory creates a Memory cache holding at most maxEntries reports.
// A background goroutine evicts entries older than ttl every 5 minutes
// until Close is called.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &Memory{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop(5 * time.Minute)
	return c
}

// Get retrieves a cached report if it exists and is younger than both
// maxAge and the store TTL. If maxAge <= 0, no lookup is performed.
func (c *Memory) Get(_ context.Context, key string, maxAge time.Duration) (*models.Report, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	age := c.now().Sub(e.createdAt)
	if age > maxAge || age > c.ttl {
		return nil, false
	}

	return e.report, true
}

// Set stores a report. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Memory) Set(_ context.Context, key string, rep *models.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		report:    rep,
		createdAt: c.now(),
	}
}

// Len returns the number of cached reports.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Memory) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Memory) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
