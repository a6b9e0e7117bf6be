//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

func setup(t *testing.T) *sql.DB {
	dsn := os.Getenv("SARD_POSTGRES_DSN")
	if dsn == "" {
		dsn = "postgresql://localhost:5455/postgresDB?user=postgresUser&password=postgresPW&sslmode=disable"
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec("DROP TABLE IF EXISTS rendered_pages")
		db.Close()
	})

	return db
}

func TestCacheIntegration(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	c, err := New(ctx, db, nil)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "https://sard.example/novel/a", &sardedge.CacheItem{
		Response:   []byte("first"),
		Expiration: now.Add(time.Hour),
	}))
	require.NoError(t, c.Set(ctx, "https://sard.example/novel/a", &sardedge.CacheItem{
		Response:   []byte("second"),
		Expiration: now.Add(time.Hour),
	}))

	item, err := c.Get(ctx, "https://sard.example/novel/a")
	require.NoError(t, err)
	assert.Equal(t, "second", string(item.Response))

	_, err = c.Get(ctx, "https://sard.example/novel/missing")
	assert.ErrorIs(t, err, caches.ErrNoCacheItem)

	now = now.Add(2 * time.Hour)

	_, err = c.Get(ctx, "https://sard.example/novel/a")
	assert.ErrorIs(t, err, caches.ErrCacheItemExpired)

	n, err := c.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
