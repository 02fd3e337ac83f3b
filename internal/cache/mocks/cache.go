package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Cache is a mock implementation of cache.Cache
type Cache struct {
	mock.Mock
}

// Get retrieves the URL cached for path
func (m *Cache) Get(ctx context.Context, path string) (string, bool, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Set stores the URL for path
func (m *Cache) Set(ctx context.Context, path, url string) error {
	args := m.Called(ctx, path, url)
	return args.Error(0)
}

// Delete removes the entry for path
func (m *Cache) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// Close releases the tier's resources
func (m *Cache) Close() error {
	args := m.Called()
	return args.Error(0)
}
