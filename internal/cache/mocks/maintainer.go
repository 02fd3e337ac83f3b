package mocks

import (
	"github.com/stretchr/testify/mock"
)

// Maintainer is a mock implementation of service.CacheMaintainer
type Maintainer struct {
	mock.Mock
}

// Generation returns the invalidation generation of path
func (m *Maintainer) Generation(path string) uint64 {
	args := m.Called(path)
	return args.Get(0).(uint64)
}

// PopulateLocal schedules a local tier fill
func (m *Maintainer) PopulateLocal(path, url string, generation uint64) {
	m.Called(path, url, generation)
}

// PopulateAll schedules a distributed then local tier fill
func (m *Maintainer) PopulateAll(path, url string, generation uint64) {
	m.Called(path, url, generation)
}

// Invalidate schedules removal from both tiers
func (m *Maintainer) Invalidate(path string) {
	m.Called(path)
}
