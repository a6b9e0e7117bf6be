package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	goredis "github.com/go-redis/redis/v8"

	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
	"github.com/dgduncan/sard-edge/caches/dynamodb"
	"github.com/dgduncan/sard-edge/caches/local"
	"github.com/dgduncan/sard-edge/caches/postgres"
	"github.com/dgduncan/sard-edge/caches/redis"
)

const (
	driverLocal    = "local"
	driverPostgres = "postgres"
	driverDynamoDB = "dynamodb"
	driverRedis    = "redis"
)

// newCache builds the configured cache backend. The returned func releases its
// connections; background tasks stop with ctx.
func newCache(ctx context.Context, cfg *config, logger *slog.Logger) (sardedge.Cache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Cache.Driver {
	case driverLocal:
		c := local.NewBasicCache()
		go c.Run(ctx, caches.DefaultExpiredTaskTimer)
		return c, noop, nil

	case driverPostgres:
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}

		c, err := postgres.New(ctx, db, &postgres.Config{
			DeleteExpiredItems: cfg.Postgres.DeleteExpired,
			ExpiredTaskTimer:   cfg.Postgres.SweepInterval,
			Logger:             logger,
		})
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return c, db.Close, nil

	case driverDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.DynamoDB.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.DynamoDB.Region))
		}

		awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}

		c, err := dynamodb.New(ctx, awsdynamodb.NewFromConfig(awscfg), &dynamodb.Config{
			Table:              cfg.DynamoDB.Table,
			ItemExpiration:     cfg.Cache.TTL,
			DeleteExpiredItems: cfg.DynamoDB.DeleteExpired,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, noop, nil

	case driverRedis:
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		c, err := redis.New(ctx, client, &redis.Config{Prefix: cfg.Redis.Prefix})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return c, client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
}
