// Package memcache is the process-local report cache.
package memcache

import (
	"context"
	"sync"
	"time"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[domain.ReportKind]domain.CacheEntry
}

func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[domain.ReportKind]domain.CacheEntry, len(domain.AllKinds))}
}

// Get returns the entry for kind if it is fresh at now. Stale entries stay in
// place until the next Put for that kind.
func (c *Cache) Get(_ context.Context, kind domain.ReportKind, now time.Time) (domain.CacheEntry, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[kind]
	c.mu.RUnlock()
	if !ok || !e.FreshAt(now, c.ttl) {
		observability.ObserveCache("memory", "miss")
		return domain.CacheEntry{}, false, nil
	}
	observability.ObserveCache("memory", "hit")
	return e, true, nil
}

func (c *Cache) Put(_ context.Context, kind domain.ReportKind, payload domain.Report, now time.Time) error {
	c.mu.Lock()
	c.entries[kind] = domain.CacheEntry{Kind: kind, Payload: payload, FetchedAt: now}
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}
