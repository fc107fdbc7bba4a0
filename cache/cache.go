// Package cache provides the catalog cache in front of pricing sources.
// Stale pricing is silent failure, so every entry carries a TTL and
// snapshot activation invalidates the affected category explicitly.
package cache

import (
	"context"
	"time"
)

// Cache is a string cache with per-entry TTL
type Cache interface {
	// Get returns the cached value and whether it was present and fresh
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value; a non-positive TTL means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error
}
