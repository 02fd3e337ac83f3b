package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joshdurbin/shortlink/internal/cache"
)

// DefaultSize is the local tier capacity used when none is configured
const DefaultSize = 10000

// Cache implements cache.Cache as a bounded in-process LRU
type Cache struct {
	entries *lru.Cache[string, string]
}

// New creates a local cache holding at most size entries
func New(size int) (*Cache, error) {
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Get retrieves the URL cached for path and marks it recently used
func (c *Cache) Get(ctx context.Context, path string) (string, bool, error) {
	url, ok := c.entries.Get(path)
	return url, ok, nil
}

// Set stores the URL for path, evicting the least recently used entry when full
func (c *Cache) Set(ctx context.Context, path, url string) error {
	c.entries.Add(path, url)
	return nil
}

// Delete removes the entry for path
func (c *Cache) Delete(ctx context.Context, path string) error {
	c.entries.Remove(path)
	return nil
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Close drops all entries
func (c *Cache) Close() error {
	c.entries.Purge()
	return nil
}

// Ensure Cache implements the interface
var _ cache.Cache = (*Cache)(nil)
