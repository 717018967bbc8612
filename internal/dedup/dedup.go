// Package dedup tracks already-notified listings so a listing is never
// announced twice, backed by the store's cache resource.
package dedup

import (
	"context"
	"time"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/metrics"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
)

// Cache filters listings against the persisted seen set. All reads and
// writes go through the store's serialized cache resource, so concurrent
// insertions from searches in the same cycle cannot lose entries.
type Cache struct {
	store store.Store
}

// New creates a Cache over s.
func New(s store.Store) *Cache {
	return &Cache{store: s}
}

// IsKnown reports whether the listing id has already been seen.
func (c *Cache) IsKnown(ctx context.Context, id string) (bool, error) {
	return c.store.IsCached(ctx, id)
}

// MarkSeen records the listing id with its first-seen time. Marking a known
// id again is a no-op.
func (c *Cache) MarkSeen(ctx context.Context, id string, seenAt time.Time) error {
	return c.store.AddToCache(ctx, id, seenAt)
}

// EvictExpired drops entries older than maxAge. It is meant to run once per
// cycle after all searches are processed, keeping per-listing checks cheap.
func (c *Cache) EvictExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	evicted, err := c.store.EvictExpired(ctx, maxAge)
	if err != nil {
		return 0, err
	}
	metrics.CacheEvictionsTotal.Add(float64(evicted))

	if size, err := c.store.CacheSize(ctx); err == nil {
		metrics.CacheSize.Set(float64(size))
	}
	return evicted, nil
}
