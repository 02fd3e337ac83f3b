package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joshdurbin/shortlink/internal/cache"
)

// DefaultPrefix namespaces keys in a shared Redis instance
const DefaultPrefix = "shortlink:"

// Cache implements cache.Cache on Redis, shared by every instance of the service
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Options configures the distributed cache
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL of zero keeps entries until they are invalidated
	TTL time.Duration
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, opts Options) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves the URL cached for path
func (c *Cache) Get(ctx context.Context, path string) (string, bool, error) {
	url, err := c.client.Get(ctx, c.key(path)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q from Redis: %w", path, err)
	}
	return url, true, nil
}

// Set stores the URL for path
func (c *Cache) Set(ctx context.Context, path, url string) error {
	if err := c.client.Set(ctx, c.key(path), url, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q in Redis: %w", path, err)
	}
	return nil
}

// Delete removes the entry for path
func (c *Cache) Delete(ctx context.Context, path string) error {
	if err := c.client.Del(ctx, c.key(path)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q from Redis: %w", path, err)
	}
	return nil
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(path string) string {
	return c.prefix + path
}

// Ensure Cache implements the interface
var _ cache.Cache = (*Cache)(nil)
