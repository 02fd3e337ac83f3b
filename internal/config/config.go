package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshdurbin/shortlink/internal/cache/maintainer"
	"github.com/joshdurbin/shortlink/internal/cache/memory"
	rediscache "github.com/joshdurbin/shortlink/internal/cache/redis"
	"github.com/joshdurbin/shortlink/internal/logging"
	"github.com/joshdurbin/shortlink/internal/repository/gormdb"
	"github.com/joshdurbin/shortlink/internal/service"
	"github.com/joshdurbin/shortlink/internal/shortener"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. SHORTLINK_SERVER_PORT
const EnvPrefix = "SHORTLINK"

// Config holds the application configuration
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Cache     CacheConfig          `mapstructure:"cache"`
	Shortener shortener.Config     `mapstructure:"shortener"`
	Writer    service.WriterConfig `mapstructure:"writer"`
	Logging   LoggingConfig        `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// Driver is "sqlite" or "mysql"
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Local      LocalCacheConfig  `mapstructure:"local"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Maintainer maintainer.Config `mapstructure:"maintainer"`
}

// LocalCacheConfig sizes the in-process LRU
type LocalCacheConfig struct {
	Size int `mapstructure:"size"`
}

// RedisConfig configures the optional distributed cache tier
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Options converts the section to redis cache options
func (r RedisConfig) Options() rediscache.Options {
	return rediscache.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
		TTL:      r.TTL,
	}
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	Format  string `mapstructure:"format"`
}

// flagKeys maps server flags to their configuration keys
var flagKeys = map[string]string{
	"port":              "server.port",
	"db-driver":         "database.driver",
	"db-path":           "database.path",
	"db-dsn":            "database.dsn",
	"cache-size":        "cache.local.size",
	"redis":             "cache.redis.enabled",
	"redis-addr":        "cache.redis.addr",
	"redis-password":    "cache.redis.password",
	"redis-db":          "cache.redis.db",
	"redis-ttl":         "cache.redis.ttl",
	"cache-workers":     "cache.maintainer.workers",
	"cache-queue-size":  "cache.maintainer.queue_size",
	"shortener-min-len": "shortener.min_length",
	"write-concurrency": "writer.concurrency",
	"verbose":           "logging.verbose",
	"log-format":        "logging.format",
}

// RegisterFlags defines the server flags. Flag defaults mirror SetDefaults;
// only flags set explicitly override the config file and environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("port", "p", "8080", "Server port")
	flags.String("db-driver", gormdb.DriverSQLite, "Database driver (sqlite or mysql)")
	flags.String("db-path", "shortlink.db", "SQLite database file path")
	flags.String("db-dsn", "", "MySQL data source name")
	flags.Int("cache-size", memory.DefaultSize, "Maximum entries in the local cache")
	flags.Bool("redis", false, "Enable the Redis distributed cache")
	flags.String("redis-addr", "localhost:6379", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("redis-ttl", 24*time.Hour, "Redis entry TTL (0 disables expiry)")
	flags.Int("cache-workers", maintainer.DefaultConfig().Workers, "Cache maintenance workers")
	flags.Int("cache-queue-size", maintainer.DefaultConfig().QueueSize, "Cache maintenance queue size per worker")
	flags.Int("shortener-min-len", shortener.DefaultMinLength, "Minimum short ID length")
	flags.Int("write-concurrency", service.DefaultConcurrency, "Concurrent writes per batch")
	flags.BoolP("verbose", "v", false, "Enable verbose logging (HTTP requests/responses and error details)")
	flags.String("log-format", logging.FormatJSON, "Log format (json or text)")
}

// SetDefaults registers the default value of every configuration key
func SetDefaults(v *viper.Viper) {
	maintainerDefaults := maintainer.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("database.driver", gormdb.DriverSQLite)
	v.SetDefault("database.path", "shortlink.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("cache.local.size", memory.DefaultSize)
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", rediscache.DefaultPrefix)
	v.SetDefault("cache.redis.ttl", 24*time.Hour)
	v.SetDefault("cache.maintainer.workers", maintainerDefaults.Workers)
	v.SetDefault("cache.maintainer.queue_size", maintainerDefaults.QueueSize)
	v.SetDefault("cache.maintainer.task_timeout", maintainerDefaults.TaskTimeout)
	v.SetDefault("shortener.min_length", shortener.DefaultMinLength)
	v.SetDefault("writer.concurrency", service.DefaultConcurrency)
	v.SetDefault("logging.verbose", false)
	v.SetDefault("logging.format", logging.FormatJSON)
}

// Load builds the configuration from defaults, an optional YAML file,
// SHORTLINK_* environment variables and explicitly set flags, in rising precedence.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validate validates the configuration values
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	switch c.Database.Driver {
	case gormdb.DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path cannot be empty")
		}
	case gormdb.DriverMySQL:
		if c.Database.DSN == "" {
			return errors.New("database dsn cannot be empty for mysql")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Cache.Local.Size <= 0 {
		return fmt.Errorf("local cache size must be positive, got: %d", c.Cache.Local.Size)
	}

	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return errors.New("redis address cannot be empty when redis is enabled")
	}

	if c.Cache.Redis.TTL < 0 {
		return fmt.Errorf("redis TTL cannot be negative, got: %v", c.Cache.Redis.TTL)
	}

	if c.Cache.Maintainer.Workers <= 0 {
		return fmt.Errorf("cache workers must be positive, got: %d", c.Cache.Maintainer.Workers)
	}

	if c.Cache.Maintainer.QueueSize <= 0 {
		return fmt.Errorf("cache queue size must be positive, got: %d", c.Cache.Maintainer.QueueSize)
	}

	if c.Cache.Maintainer.TaskTimeout <= 0 {
		return fmt.Errorf("cache task timeout must be positive, got: %v", c.Cache.Maintainer.TaskTimeout)
	}

	if c.Shortener.MinLength < 1 || c.Shortener.MinLength > shortener.EncodedLength {
		return fmt.Errorf("shortener min length must be between 1 and %d, got: %d", shortener.EncodedLength, c.Shortener.MinLength)
	}

	if c.Writer.Concurrency <= 0 {
		return fmt.Errorf("writer concurrency must be positive, got: %d", c.Writer.Concurrency)
	}

	if c.Logging.Format != logging.FormatJSON && c.Logging.Format != logging.FormatText {
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}

	return nil
}
