package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortlink/internal/domain"
)

// MappingRepository is a mock implementation of repository.MappingRepository
type MappingRepository struct {
	mock.Mock
}

// FindByPath retrieves the mapping whose path equals path
func (m *MappingRepository) FindByPath(ctx context.Context, path string) (*domain.Mapping, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mapping), args.Error(1)
}

// FindByShortIDPrefix retrieves all mappings whose short ID starts with prefix
func (m *MappingRepository) FindByShortIDPrefix(ctx context.Context, prefix string) ([]*domain.Mapping, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Mapping), args.Error(1)
}

// Insert stores a new mapping
func (m *MappingRepository) Insert(ctx context.Context, mapping *domain.Mapping) (*domain.Mapping, error) {
	args := m.Called(ctx, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mapping), args.Error(1)
}

// UpdateURLByPath replaces the URL of the mapping at path
func (m *MappingRepository) UpdateURLByPath(ctx context.Context, path, url string) (*domain.Mapping, error) {
	args := m.Called(ctx, path, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mapping), args.Error(1)
}

// Close closes the repository connection
func (m *MappingRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
