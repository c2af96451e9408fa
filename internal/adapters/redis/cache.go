package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const keyPrefix = "insights:report:"

// Cache keeps report entries in Redis so replicas and reportctl share them.
// Keys carry no server-side expiry: freshness is judged by the reader against
// fetchedAt, exactly like the in-memory cache.
type Cache struct {
	c   *redis.Client
	ttl time.Duration
}

func New(addr, pass string, db int, ttl time.Duration) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewFromClient(c *redis.Client, ttl time.Duration) *Cache {
	return &Cache{c: c, ttl: ttl}
}

type record struct {
	Kind      domain.ReportKind `json:"kind"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Payload   json.RawMessage   `json:"payload"`
}

func key(kind domain.ReportKind) string { return keyPrefix + string(kind) }

func (r *Cache) Get(ctx context.Context, kind domain.ReportKind, now time.Time) (domain.CacheEntry, bool, error) {
	v, err := r.c.Get(ctx, key(kind)).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	var rec record
	if err := json.Unmarshal(v, &rec); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("decode cache record %s: %w", kind, err)
	}
	payload, err := domain.DecodeReport(kind, rec.Payload)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	e := domain.CacheEntry{Kind: kind, Payload: payload, FetchedAt: rec.FetchedAt}
	if !e.FreshAt(now, r.ttl) {
		observability.ObserveCache("redis", "miss")
		return domain.CacheEntry{}, false, nil
	}
	observability.ObserveCache("redis", "hit")
	return e, true, nil
}

func (r *Cache) Put(ctx context.Context, kind domain.ReportKind, payload domain.Report, now time.Time) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}
	b, err := json.Marshal(record{Kind: kind, FetchedAt: now, Payload: p})
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, key(kind), b, 0).Err()
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }
