// Package config provides unified configuration loading for the plate bot.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dan1650/plates-bot/internal/storage"
)

// Config holds all configuration for the plate bot.
type Config struct {
	Bot           BotConfig           `yaml:"bot"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Registry      RegistryConfig      `yaml:"registry"`
	Lookup        LookupConfig        `yaml:"lookup"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Cache         CacheConfig         `yaml:"cache"`
	Bootstrap     BootstrapConfig     `yaml:"bootstrap"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BotConfig holds chat transport settings.
type BotConfig struct {
	Token       string `yaml:"token"`
	PollTimeout int    `yaml:"poll_timeout"` // seconds
	Debug       bool   `yaml:"debug"`
}

// ServerConfig holds the health listener settings. Port 0 disables it.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RegistryConfig names the registry table and its columns.
type RegistryConfig struct {
	Table   string          `yaml:"table"`
	RowID   string          `yaml:"row_id"`
	Columns storage.Columns `yaml:"columns"`
}

// LookupConfig holds query caps and worker settings.
type LookupConfig struct {
	PlateLimit  int           `yaml:"plate_limit"`
	NumberLimit int           `yaml:"number_limit"`
	PhoneLimit  int           `yaml:"phone_limit"`
	MaxChoices  int           `yaml:"max_choices"`
	Workers     int           `yaml:"workers"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RateLimitConfig holds the per-user rate gate settings.
type RateLimitConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxUsers int           `yaml:"max_users"`
}

// CacheConfig holds the selection store settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"` // selection lifetime; 0 keeps it until replaced
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// BootstrapConfig controls downloading the registry file when it is missing.
type BootstrapConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file, a .env file in the working
// directory if present, and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// A missing .env is normal in production.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration matching the CARMDI SQLite export.
func DefaultConfig() *Config {
	reg := storage.DefaultRegistryConfig()
	return &Config{
		Bot: BotConfig{
			PollTimeout: 60,
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             0,
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     10 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "./plates.db",
				MaxOpenConns: 8,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Registry: RegistryConfig{
			Table:   reg.Table,
			Columns: reg.Columns,
		},
		Lookup: LookupConfig{
			PlateLimit:  50,
			NumberLimit: 100,
			PhoneLimit:  50,
			MaxChoices:  10,
			Workers:     8,
			Timeout:     30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Interval: time.Second,
			MaxUsers: 10000,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			MaxEntries: 10000,
			TTL:        24 * time.Hour,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "platebot:",
			},
		},
		Bootstrap: BootstrapConfig{
			Enabled: true,
			Timeout: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "platebot",
		},
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	// Identifiers are interpolated into SQL, so only bare names are allowed.
	idents := append([]string{c.Registry.Table}, c.Registry.Columns.Names()...)
	if c.Registry.RowID != "" {
		idents = append(idents, c.Registry.RowID)
	}
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return fmt.Errorf("invalid registry identifier: %q", id)
		}
	}

	if c.Lookup.PlateLimit < 1 || c.Lookup.NumberLimit < 1 || c.Lookup.PhoneLimit < 1 {
		return fmt.Errorf("lookup limits must be positive")
	}
	if c.Lookup.MaxChoices < 1 {
		return fmt.Errorf("max_choices must be positive")
	}
	if c.Lookup.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.RateLimit.Interval < 0 {
		return fmt.Errorf("rate limit interval must not be negative")
	}

	return nil
}

// Dialect returns the storage dialect for the configured driver.
func (c *Config) Dialect() storage.Dialect {
	if c.Database.Driver == "postgres" {
		return storage.DialectPostgres
	}
	return storage.DialectSQLite
}

// StorageRegistry returns the storage layout for the registry repository.
func (c *Config) StorageRegistry() storage.RegistryConfig {
	return storage.RegistryConfig{
		Table:   c.Registry.Table,
		RowID:   c.Registry.RowID,
		Dialect: c.Dialect(),
		Columns: c.Registry.Columns,
	}
}

// DatabaseDSN returns the appropriate database connection string. SQLite
// files are opened read-only.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", c.Database.SQLite.Path)
	}
	return c.Database.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.SQLite.Path = v
	}

	if v := os.Getenv("DB_URL"); v != "" {
		cfg.Bootstrap.URL = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("LOOKUP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lookup.Workers = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
