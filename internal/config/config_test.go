package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "shortlink.db", cfg.Database.Path)
	assert.Equal(t, 10000, cfg.Cache.Local.Size)
	assert.False(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, "shortlink:", cfg.Cache.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, 4, cfg.Cache.Maintainer.Workers)
	assert.Equal(t, 1024, cfg.Cache.Maintainer.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Cache.Maintainer.TaskTimeout)
	assert.Equal(t, 6, cfg.Shortener.MinLength)
	assert.Equal(t, 8, cfg.Writer.Concurrency)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SHORTLINK_SERVER_PORT", "9090")
	t.Setenv("SHORTLINK_CACHE_REDIS_ENABLED", "true")
	t.Setenv("SHORTLINK_CACHE_REDIS_ADDR", "redis:6379")
	t.Setenv("SHORTLINK_CACHE_MAINTAINER_TASK_TIMEOUT", "500ms")
	t.Setenv("SHORTLINK_SHORTENER_MIN_LENGTH", "8")

	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.Maintainer.TaskTimeout)
	assert.Equal(t, 8, cfg.Shortener.MinLength)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortlink.yaml")
	content := `
server:
  port: "7070"
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/shortlink?parseTime=true"
cache:
  redis:
    enabled: true
    addr: "cache:6379"
    ttl: 1h
logging:
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/shortlink?parseTime=true", cfg.Database.DSN)
	assert.Equal(t, time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, "text", cfg.Logging.Format)

	opts := cfg.Cache.Redis.Options()
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "shortlink:", opts.Prefix)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SHORTLINK_SERVER_PORT", "9090")
	t.Setenv("SHORTLINK_DATABASE_PATH", "env.db")

	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--port", "6060", "--verbose"}))

	cfg, err := Load("", flags)

	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Server.Port)
	assert.True(t, cfg.Logging.Verbose)
	// unset flags fall back to the environment
	assert.Equal(t, "env.db", cfg.Database.Path)
}

func TestRegisterFlags_EveryFlagIsBound(t *testing.T) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	RegisterFlags(flags)

	v := viper.New()
	SetDefaults(v)

	registered := 0
	flags.VisitAll(func(f *pflag.Flag) {
		registered++
		key, ok := flagKeys[f.Name]
		if assert.True(t, ok, "flag %s has no configuration key", f.Name) {
			assert.True(t, v.IsSet(key), "key %s has no default", key)
		}
	})
	assert.Equal(t, len(flagKeys), registered)

	// the server address clients use belongs to the client command only
	assert.Nil(t, flags.Lookup("server-url"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{
			name:        "empty server port",
			mutate:      func(c *Config) { c.Server.Port = "" },
			errContains: "server port cannot be empty",
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.Database.Driver = "postgres" },
			errContains: "unsupported database driver",
		},
		{
			name:        "empty sqlite path",
			mutate:      func(c *Config) { c.Database.Path = "" },
			errContains: "database path cannot be empty",
		},
		{
			name: "mysql without dsn",
			mutate: func(c *Config) {
				c.Database.Driver = "mysql"
				c.Database.DSN = ""
			},
			errContains: "database dsn cannot be empty",
		},
		{
			name:        "zero cache size",
			mutate:      func(c *Config) { c.Cache.Local.Size = 0 },
			errContains: "local cache size must be positive",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Cache.Redis.Enabled = true
				c.Cache.Redis.Addr = ""
			},
			errContains: "redis address cannot be empty",
		},
		{
			name:        "negative redis TTL",
			mutate:      func(c *Config) { c.Cache.Redis.TTL = -time.Second },
			errContains: "redis TTL cannot be negative",
		},
		{
			name:        "zero workers",
			mutate:      func(c *Config) { c.Cache.Maintainer.Workers = 0 },
			errContains: "cache workers must be positive",
		},
		{
			name:        "zero queue size",
			mutate:      func(c *Config) { c.Cache.Maintainer.QueueSize = 0 },
			errContains: "cache queue size must be positive",
		},
		{
			name:        "zero task timeout",
			mutate:      func(c *Config) { c.Cache.Maintainer.TaskTimeout = 0 },
			errContains: "cache task timeout must be positive",
		},
		{
			name:        "min length too long",
			mutate:      func(c *Config) { c.Shortener.MinLength = 44 },
			errContains: "shortener min length must be between 1 and 43",
		},
		{
			name:        "zero concurrency",
			mutate:      func(c *Config) { c.Writer.Concurrency = 0 },
			errContains: "writer concurrency must be positive",
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			errContains: "unsupported log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("", nil)
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
