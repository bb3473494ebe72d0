package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// browser origins allowed by CORS, the native app is always allowed
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`

	// calendar used for day/week/month buckets, e.g. "Europe/Berlin"
	Timezone string `toml:"timezone"`

	// leaderboard
	LeaderboardStore            string `toml:"leaderboard_store"` // redis | postgres | memory
	LeaderboardCollectionTTL    int    `toml:"leaderboard_collection_ttl_days"`
	LeaderboardRefreshPerMin    int    `toml:"leaderboard_refresh_per_min"`
	LeaderboardFetchOnPubFailed bool   `toml:"leaderboard_fetch_on_publish_failure"`

	// health provider cache
	HealthCacheSizeMB   int `toml:"health_cache_size_mb"`
	HealthCacheTTLHours int `toml:"health_cache_ttl_hours"`
}

const (
	LeaderboardStoreRedis    = "redis"
	LeaderboardStorePostgres = "postgres"
	// LeaderboardStoreMemory keeps the rankings in process, for local development only
	LeaderboardStoreMemory = "memory"
)

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}
	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the config for the given environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.Get(env)
}

// Parse is like Load, but reads the TOML from a string.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return t.Get(env)
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.CorsAllowedOrigins == nil {
		c.CorsAllowedOrigins = []string{"https://fitboard.app", "https://www.fitboard.app"}
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.LeaderboardStore == "" {
		c.LeaderboardStore = LeaderboardStoreRedis
	}
	if c.LeaderboardCollectionTTL == 0 {
		c.LeaderboardCollectionTTL = 35
	}
	// one refresh per minute and device, so a second tap gets a 429 instead of racing the first
	if c.LeaderboardRefreshPerMin == 0 {
		c.LeaderboardRefreshPerMin = 1
	}
	if c.HealthCacheSizeMB == 0 {
		c.HealthCacheSizeMB = 32
	}
	if c.HealthCacheTTLHours == 0 {
		c.HealthCacheTTLHours = 24
	}
}

func (c *Config) validate() error {
	switch c.LeaderboardStore {
	case LeaderboardStoreRedis, LeaderboardStorePostgres, LeaderboardStoreMemory:
	default:
		return fmt.Errorf("unknown leaderboard store: %s", c.LeaderboardStore)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the calendar location for bucketing, local time if not set.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone [%s]: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) LeaderboardCollectionTTLDuration() time.Duration {
	return time.Duration(c.LeaderboardCollectionTTL) * 24 * time.Hour
}

func (c *Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.HealthCacheTTLHours) * time.Hour
}
