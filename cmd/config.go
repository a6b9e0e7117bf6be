package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SARD"

type config struct {
	Server   serverConfig   `mapstructure:"server"`
	Origin   originConfig   `mapstructure:"origin"`
	API      apiConfig      `mapstructure:"api"`
	Site     siteConfig     `mapstructure:"site"`
	Render   renderConfig   `mapstructure:"render"`
	Cache    cacheConfig    `mapstructure:"cache"`
	Postgres postgresConfig `mapstructure:"postgres"`
	DynamoDB dynamoDBConfig `mapstructure:"dynamodb"`
	Redis    redisConfig    `mapstructure:"redis"`
	Log      logConfig      `mapstructure:"log"`
}

type serverConfig struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type originConfig struct {
	URL string `mapstructure:"url"`
}

type apiConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type siteConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type renderConfig struct {
	Marker   string   `mapstructure:"marker"`
	Crawlers []string `mapstructure:"crawlers"`
}

type cacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type postgresConfig struct {
	DSN           string        `mapstructure:"dsn"`
	DeleteExpired bool          `mapstructure:"delete_expired"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type dynamoDBConfig struct {
	Table         string `mapstructure:"table"`
	Region        string `mapstructure:"region"`
	DeleteExpired bool   `mapstructure:"delete_expired"`
}

type redisConfig struct {
	Addrs    []string `mapstructure:"addrs"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
	Prefix   string   `mapstructure:"prefix"`
}

type logConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("origin.url", "http://localhost:3000")
	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("site.url", "")
	v.SetDefault("site.name", "سرد")
	v.SetDefault("render.marker", "sard-edge")
	v.SetDefault("render.crawlers", []string{})
	v.SetDefault("cache.driver", "local")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.delete_expired", true)
	v.SetDefault("postgres.sweep_interval", 10*time.Minute)
	v.SetDefault("dynamodb.table", "sard-edge-pages")
	v.SetDefault("dynamodb.region", "")
	v.SetDefault("dynamodb.delete_expired", true)
	v.SetDefault("redis.addrs", []string{"localhost:6379"})
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// loadConfig reads defaults, then the optional YAML file at path, then SARD_*
// environment variables (SARD_API_URL overrides api.url).
func loadConfig(path string) (*config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *config) validate() error {
	if c.Origin.URL == "" {
		return fmt.Errorf("origin.url is required")
	}
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}

	switch c.Cache.Driver {
	case driverLocal, driverRedis, driverDynamoDB:
	case driverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres cache driver")
		}
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}

	return nil
}

func (c logConfig) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
