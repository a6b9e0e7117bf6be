//go:build !integration

package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

func testTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestBasicCacheGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		key         string
		expiration  time.Duration
		expectedErr error
	}{
		{
			name:       "golden path - cache hit",
			key:        "https://sard.example/novel/hit",
			expiration: time.Hour,
		},
		{
			name:        "missing key",
			key:         "https://sard.example/novel/missing",
			expectedErr: caches.ErrNoCacheItem,
		},
		{
			name:        "expired item",
			key:         "https://sard.example/novel/expired",
			expiration:  -time.Second,
			expectedErr: caches.ErrCacheItemExpired,
		},
		{
			name:        "item expiring exactly now",
			key:         "https://sard.example/novel/boundary",
			expiration:  0,
			expectedErr: caches.ErrCacheItemExpired,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			c := NewBasicCacheWithTimeFunc(testTime)

			if tt.expectedErr != caches.ErrNoCacheItem {
				require.NoError(t, c.Set(ctx, tt.key, &sardedge.CacheItem{
					Response:   []byte("page"),
					Expiration: testTime().Add(tt.expiration),
				}))
			}

			item, err := c.Get(ctx, tt.key)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []byte("page"), item.Response)
		})
	}
}

func TestBasicCacheSetOverwrites(t *testing.T) {
	ctx := context.Background()
	c := NewBasicCacheWithTimeFunc(testTime)

	require.NoError(t, c.Set(ctx, "k", &sardedge.CacheItem{Response: []byte("first"), Expiration: testTime().Add(time.Hour)}))
	require.NoError(t, c.Set(ctx, "k", &sardedge.CacheItem{Response: []byte("second"), Expiration: testTime().Add(time.Hour)}))

	item, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(item.Response))
	assert.Equal(t, 1, c.Len())
}

func TestBasicCacheSweep(t *testing.T) {
	ctx := context.Background()
	now := testTime()
	c := NewBasicCacheWithTimeFunc(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "fresh", &sardedge.CacheItem{Expiration: now.Add(24 * time.Hour)}))
	require.NoError(t, c.Set(ctx, "stale", &sardedge.CacheItem{Expiration: now.Add(time.Minute)}))

	now = now.Add(time.Hour)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	_, err := c.Get(ctx, "stale")
	assert.ErrorIs(t, err, caches.ErrNoCacheItem)
}
