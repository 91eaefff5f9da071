// Package cache provides the page-level response cache. The cache stores
// whole rendered responses keyed by route and forgets them on expiry or on an
// explicit clear. Staleness within the expiry window is accepted by design;
// writes do not invalidate.
package cache

import (
	"context"
	"time"
)

// Cache is the page cache contract shared by the in-memory and the Redis
// implementation.
type Cache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops all cached pages.
	Clear(ctx context.Context) error
}
