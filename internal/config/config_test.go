package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan1650/plates-bot/internal/storage"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 50, cfg.Lookup.PlateLimit)
	assert.Equal(t, 100, cfg.Lookup.NumberLimit)
	assert.Equal(t, 50, cfg.Lookup.PhoneLimit)
	assert.Equal(t, 10, cfg.Lookup.MaxChoices)
	assert.Equal(t, time.Second, cfg.RateLimit.Interval)
	assert.Equal(t, 0, cfg.Server.Port, "health listener is off by default")
	assert.Equal(t, "CARMDI", cfg.Registry.Table)
	assert.Equal(t, storage.DefaultColumns(), cfg.Registry.Columns)
}

func TestLoad_ExampleFile(t *testing.T) {
	for _, key := range []string{"BOT_TOKEN", "PORT", "SERVER_HOST", "DB_PATH", "DB_URL", "DATABASE_URL", "REDIS_URL", "LOOKUP_WORKERS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join("..", "..", "configs", "platebot.example.yaml"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Server.Port = 8080
	assert.Equal(t, want, cfg)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bot:
  poll_timeout: 30
registry:
  table: plates
  columns:
    phone: owner_phone
lookup:
  number_limit: 20
rate_limit:
  interval: 2s
`), 0o600))

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/data/plates.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, 30, cfg.Bot.PollTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/data/plates.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "plates", cfg.Registry.Table)
	assert.Equal(t, "owner_phone", cfg.Registry.Columns.Phone)
	assert.Equal(t, "CodeDesc", cfg.Registry.Columns.Region, "unset columns keep their defaults")
	assert.Equal(t, 20, cfg.Lookup.NumberLimit)
	assert.Equal(t, 50, cfg.Lookup.PlateLimit)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Interval)
}

func TestLoad_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/registry?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, storage.DialectPostgres, cfg.Dialect())
	assert.Equal(t, "postgres://u:p@db:5432/registry?sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"injected table", func(c *Config) { c.Registry.Table = "CARMDI; DROP TABLE x" }},
		{"injected column", func(c *Config) { c.Registry.Columns.Phone = "TelProp)--" }},
		{"zero limit", func(c *Config) { c.Lookup.PlateLimit = 0 }},
		{"zero choices", func(c *Config) { c.Lookup.MaxChoices = 0 }},
		{"zero workers", func(c *Config) { c.Lookup.Workers = 0 }},
		{"negative interval", func(c *Config) { c.RateLimit.Interval = -time.Second }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN_SQLiteReadOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.SQLite.Path = "/data/plates.db"
	assert.Equal(t, "file:/data/plates.db?mode=ro&_busy_timeout=5000", cfg.DatabaseDSN())

	reg := cfg.StorageRegistry()
	assert.Equal(t, storage.DialectSQLite, reg.Dialect)
	assert.Equal(t, "CARMDI", reg.Table)
}
