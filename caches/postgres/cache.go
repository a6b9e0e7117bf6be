package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"io"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

var (
	// ErrPingFailed is returned if the initial ping to the database returns an error
	ErrPingFailed = errors.New("ping returned error")
)

var (
	//go:embed create_table.sql
	queryCreateTable string
	//go:embed delete_expired.sql
	queryDeleteExpired string
	//go:embed fetch_by_id.sql
	queryFetchByID string
	//go:embed insert_item.sql
	queryInsertItem string
)

// Config defines the configuration options for the PostgreSQL cache implementation.
type Config struct {
	// DeleteExpiredItems enables automatic cleanup of expired cache entries
	// through a background task.
	DeleteExpiredItems bool

	// ExpiredTaskTimer defines the interval at which the cleanup task runs.
	// Shorter durations may impact database performance.
	ExpiredTaskTimer time.Duration

	// Logger receives cleanup task errors. Nil discards them.
	Logger *slog.Logger
}

// Cache implements the sardedge.Cache interface using PostgreSQL as the storage backend.
// Rendered pages live in the rendered_pages table keyed by URL.
type Cache struct {
	db *sql.DB

	now func() time.Time
}

// Get retrieves a cache item from PostgreSQL by its key.
// Returns caches.ErrNoCacheItem if the item doesn't exist and caches.ErrCacheItemExpired
// alongside the item if it is past its expiration.
func (p *Cache) Get(ctx context.Context, k string) (*sardedge.CacheItem, error) {
	var (
		url      string
		response []byte
		expires  time.Time
	)

	err := p.db.QueryRowContext(ctx, queryFetchByID, k).Scan(&url, &response, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, caches.ErrNoCacheItem
		}
		return nil, err
	}

	item := &sardedge.CacheItem{
		Response:   response,
		Expiration: expires,
	}

	if item.Expired(p.now()) {
		return item, caches.ErrCacheItemExpired
	}

	return item, nil
}

// Set upserts a cache item. Concurrent writers for the same URL resolve as last write wins.
func (p *Cache) Set(ctx context.Context, k string, v *sardedge.CacheItem) error {
	_, err := p.db.ExecContext(ctx, queryInsertItem, k, v.Response, v.Expiration.UTC(), p.now().UTC())
	return err
}

// DeleteExpired removes every row past its expiration.
func (p *Cache) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, queryDeleteExpired, p.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, queryCreateTable)
	return err
}

func (p *Cache) expiredTask(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugContext(ctx, "expired item task stopped")
			return
		case <-t.C:
			n, err := p.DeleteExpired(ctx)
			if err != nil {
				logger.WarnContext(ctx, "error deleting expired items", "error", err)
				continue
			}
			logger.DebugContext(ctx, "deleted expired items", "count", n)
		}
	}
}

// New creates a new PostgreSQL cache instance with the provided configuration.
// It verifies the database connection, creates the necessary table structure, and
// optionally starts the cleanup task for expired items. The task stops with ctx.
//
// Returns an error if:
// - The database connection test fails
// - Table creation fails
func New(ctx context.Context, db *sql.DB, config *Config) (*Cache, error) {
	if db == nil {
		return nil, caches.ValidationError{
			Reason: "nil database",
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(ErrPingFailed, err)
	}

	if err := createTable(ctx, db); err != nil {
		return nil, err
	}

	c := &Cache{
		db: db,

		now: time.Now,
	}

	if config != nil && config.DeleteExpiredItems {
		interval := config.ExpiredTaskTimer
		if interval <= 0 {
			interval = caches.DefaultExpiredTaskTimer
		}

		logger := config.Logger
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		go c.expiredTask(ctx, interval, logger)
	}

	return c, nil
}
