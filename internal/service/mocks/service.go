package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortlink/internal/domain"
)

// Shortlinks is a mock implementation of service.Shortlinks
type Shortlinks struct {
	mock.Mock
}

// Resolve returns the URL mapped to path
func (m *Shortlinks) Resolve(ctx context.Context, path string) (string, bool, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Write processes a batch of write requests
func (m *Shortlinks) Write(ctx context.Context, requests []domain.WriteRequest) []domain.WriteResult {
	args := m.Called(ctx, requests)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.WriteResult)
}
