// Package tiered layers the in-process page cache over the shared NATS KV cache.
package tiered

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Strob0t/professor/internal/port/cache"
)

// Stats counts lookups by the tier that answered them.
type Stats struct {
	L1Hits int64
	L2Hits int64
	Misses int64
}

// Cache serves reads from l1, falling back to l2 and backfilling l1 on an l2
// hit. Writes go to both tiers. l2 errors are logged and treated as misses so a
// NATS outage only costs refetches.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration

	l1Hits atomic.Int64
	l2Hits atomic.Int64
	misses atomic.Int64
}

var _ cache.Cache = (*Cache)(nil)

// New creates a tiered cache. Entries backfilled from l2 live in l1 for l1Expire.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	if val, found, err := c.l1.Get(ctx, key); err != nil {
		return nil, false, err
	} else if found {
		c.l1Hits.Add(1)
		return val, true, nil
	}

	val, found, err := c.l2.Get(ctx, key)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "l2 cache get failed", "key", key, "error", err)
	case found:
		c.l2Hits.Add(1)
		if err := c.l1.Set(ctx, key, val, c.l1Expire); err != nil {
			slog.DebugContext(ctx, "l1 backfill failed", "key", key, "error", err)
		}
		return val, true, nil
	}
	c.misses.Add(1)
	return nil, false, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes key from both tiers. An l2 failure is returned after l1 is cleared.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	return c.l2.Delete(ctx, key)
}

// Stats returns the lookup counters since creation.
func (c *Cache) Stats() Stats {
	return Stats{
		L1Hits: c.l1Hits.Load(),
		L2Hits: c.l2Hits.Load(),
		Misses: c.misses.Load(),
	}
}
