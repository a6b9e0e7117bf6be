package redis

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

const defaultPrefix = "sard-edge:page:"

// ErrPingFailed is returned if the initial ping to redis returns an error
var ErrPingFailed = errors.New("ping returned error")

// Config defines the configuration options for the Redis cache implementation.
type Config struct {
	// Prefix is prepended to every key. Defaults to "sard-edge:page:".
	Prefix string
}

// Cache implements the sardedge.Cache interface on Redis. Items are gob encoded and
// stored with a key TTL matching their expiration, so Redis evicts them on its own.
type Cache struct {
	client redis.UniversalClient

	prefix string
	now    func() time.Time
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a cache item from Redis by its key.
func (c *Cache) Get(ctx context.Context, k string) (*sardedge.CacheItem, error) {
	data, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, caches.ErrNoCacheItem
		}
		return nil, err
	}

	var item sardedge.CacheItem
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&item); err != nil {
		return nil, err
	}

	if item.Expired(c.now()) {
		return &item, caches.ErrCacheItemExpired
	}

	return &item, nil
}

// Set stores the item until its expiration. Items that are already expired are not written.
func (c *Cache) Set(ctx context.Context, k string, v *sardedge.CacheItem) error {
	ttl := v.Expiration.Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(k), b.Bytes(), ttl).Err()
}

// New creates a Redis cache. The client is pinged so misconfiguration surfaces at startup.
func New(ctx context.Context, client redis.UniversalClient, config *Config) (*Cache, error) {
	if client == nil {
		return nil, caches.ValidationError{
			Reason: "nil client",
		}
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(ErrPingFailed, err)
	}

	prefix := defaultPrefix
	if config != nil && config.Prefix != "" {
		prefix = config.Prefix
	}

	return &Cache{
		client: client,

		prefix: prefix,
		now:    time.Now,
	}, nil
}
