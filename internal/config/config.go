package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultStreakGoal             = 20
	DefaultTimezone               = "UTC"
	DefaultDatastoreTimeout       = 5 * time.Second
	DefaultBadgeCatalogCacheTTL   = 10 * time.Minute
	DefaultUserLockTTL            = 15 * time.Second
	DefaultWorkoutRateLimitPerMin = 120
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"-"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// progress engine
	Timezone               string        `toml:"timezone"`
	StreakGoal             int           `toml:"streak_goal"`
	DatastoreTimeout       time.Duration `toml:"datastore_timeout"`
	UserLockTTL            time.Duration `toml:"user_lock_ttl"`
	BadgeCatalogCacheTTL   time.Duration `toml:"badge_catalog_cache_ttl"`
	WorkoutRateLimitPerMin int           `toml:"workout_rate_limit_per_min"`
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
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
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.StreakGoal <= 0 {
		c.StreakGoal = DefaultStreakGoal
	}
	if c.DatastoreTimeout <= 0 {
		c.DatastoreTimeout = DefaultDatastoreTimeout
	}
	if c.UserLockTTL <= 0 {
		c.UserLockTTL = DefaultUserLockTTL
	}
	if c.BadgeCatalogCacheTTL <= 0 {
		c.BadgeCatalogCacheTTL = DefaultBadgeCatalogCacheTTL
	}
	if c.WorkoutRateLimitPerMin <= 0 {
		c.WorkoutRateLimitPerMin = DefaultWorkoutRateLimitPerMin
	}
}

// Location resolves the time zone that defines calendar days for streaks and rollovers.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}
