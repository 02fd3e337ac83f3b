package repository

import (
	"context"
	"errors"

	"github.com/joshdurbin/shortlink/internal/domain"
)

var (
	// ErrNotFound is returned when no mapping exists for a path
	ErrNotFound = errors.New("mapping not found")

	// ErrConflict is returned when an insert violates the path or short ID uniqueness constraint
	ErrConflict = errors.New("mapping already exists")
)

// MappingRepository defines the interface for mapping data operations
type MappingRepository interface {
	// FindByPath retrieves the mapping whose path equals path
	FindByPath(ctx context.Context, path string) (*domain.Mapping, error)

	// FindByShortIDPrefix retrieves all mappings whose short ID starts with prefix, ordered by short ID ascending
	FindByShortIDPrefix(ctx context.Context, prefix string) ([]*domain.Mapping, error)

	// Insert stores a new mapping and returns it with the store-assigned fields set
	Insert(ctx context.Context, mapping *domain.Mapping) (*domain.Mapping, error)

	// UpdateURLByPath replaces the URL of the mapping at path and refreshes its update time
	UpdateURLByPath(ctx context.Context, path, url string) (*domain.Mapping, error)

	// Close closes the repository connection
	Close() error
}
