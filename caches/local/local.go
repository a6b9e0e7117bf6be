package local

import (
	"context"
	"sync"
	"time"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

// BasicCache is an in-process Cache backed by a map. Entries past their expiration
// are reported as caches.ErrCacheItemExpired and removed by Sweep.
type BasicCache struct {
	cache map[string]*sardedge.CacheItem

	lock sync.RWMutex
	now  func() time.Time
}

func (bc *BasicCache) Get(_ context.Context, key string) (*sardedge.CacheItem, error) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()

	val, found := bc.cache[key]
	if !found {
		return nil, caches.ErrNoCacheItem
	}

	if val.Expired(bc.now()) {
		return val, caches.ErrCacheItemExpired
	}

	return val, nil
}

func (bc *BasicCache) Set(_ context.Context, key string, item *sardedge.CacheItem) error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	bc.cache[key] = item

	return nil
}

// Sweep deletes expired entries and returns how many were removed.
func (bc *BasicCache) Sweep() int {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	now := bc.now()
	removed := 0
	for k, v := range bc.cache {
		if v.Expired(now) {
			delete(bc.cache, k)
			removed++
		}
	}

	return removed
}

// Len returns the number of stored entries, expired ones included.
func (bc *BasicCache) Len() int {
	bc.lock.RLock()
	defer bc.lock.RUnlock()

	return len(bc.cache)
}

// Run sweeps expired entries every interval until ctx is done.
func (bc *BasicCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = caches.DefaultExpiredTaskTimer
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			bc.Sweep()
		}
	}
}

func NewBasicCache() *BasicCache {
	return NewBasicCacheWithTimeFunc(time.Now)
}

// NewBasicCacheWithTimeFunc creates a BasicCache that reads the current time from now.
func NewBasicCacheWithTimeFunc(now func() time.Time) *BasicCache {
	if now == nil {
		now = time.Now
	}

	return &BasicCache{
		cache: make(map[string]*sardedge.CacheItem),
		now:   now,
	}
}
