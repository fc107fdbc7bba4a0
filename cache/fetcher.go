// Package cache - Caching catalog fetcher decorator
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"studycost/core/catalog"
	"studycost/core/types"
	"studycost/internal/logging"
)

const keyPrefix = "catalog:"

// CachedFetcher wraps a catalog.Fetcher with a TTL cache per category.
// Cache failures never fail a fetch: a broken cache reads as a miss and
// writes are best-effort.
type CachedFetcher struct {
	inner catalog.Fetcher
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedFetcher decorates a fetcher with a cache
func NewCachedFetcher(inner catalog.Fetcher, c Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner: inner,
		cache: c,
		ttl:   ttl,
		log:   logging.Named("cache"),
	}
}

// Source implements catalog.Fetcher
func (f *CachedFetcher) Source() string {
	return f.inner.Source()
}

// Fetch serves the cached catalog when fresh, otherwise falls through to
// the inner fetcher and caches the result
func (f *CachedFetcher) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	key := keyPrefix + category.String()

	if raw, ok := f.cache.Get(ctx, key); ok {
		var cat types.Catalog
		if err := json.Unmarshal([]byte(raw), &cat); err == nil {
			return &cat, nil
		}
		// A corrupt entry is dropped and refetched
		_ = f.cache.Delete(ctx, key)
	}

	cat, err := f.inner.Fetch(ctx, category)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cat); err == nil {
		if err := f.cache.Set(ctx, key, string(data), f.ttl); err != nil {
			f.log.Debug("catalog cache write failed",
				zap.String("category", category.String()),
				zap.Error(err))
		}
	}
	return cat, nil
}

// Invalidate drops the cached catalog for a category, e.g. after a new
// snapshot is activated
func (f *CachedFetcher) Invalidate(ctx context.Context, category types.Category) {
	_ = f.cache.Delete(ctx, keyPrefix+category.String())
}
