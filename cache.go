package sardedge

import (
	"context"
	"time"
)

// CacheItem is a rendered page snapshot. Response holds the full wire dump of the
// http.Response (status line, headers and body) so it can be replayed verbatim.
type CacheItem struct {
	Response   []byte
	Expiration time.Time
}

// Expired reports whether the item is no longer servable at the given time.
func (ci *CacheItem) Expired(now time.Time) bool {
	return !now.UTC().Before(ci.Expiration.UTC())
}

// Cache is the edge cache store used by the responder. Implementations only need
// atomic get and put; the responder never performs read-modify-write on an entry.
type Cache interface {
	Get(ctx context.Context, k string) (*CacheItem, error)
	Set(ctx context.Context, k string, v *CacheItem) error
}
