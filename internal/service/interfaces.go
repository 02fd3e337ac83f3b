package service

import (
	"context"

	"github.com/joshdurbin/shortlink/internal/domain"
)

// Resolver answers redirect lookups through the cache tiers
type Resolver interface {
	// Resolve returns the URL mapped to path; found is false when no tier knows the path
	Resolve(ctx context.Context, path string) (url string, found bool, err error)
}

// Writer creates and updates mappings
type Writer interface {
	// Write processes a batch of requests and returns one result per request, in input order
	Write(ctx context.Context, requests []domain.WriteRequest) []domain.WriteResult
}

// Shortlinks is the boundary exposed to the transport layer
type Shortlinks interface {
	Resolver
	Writer
}

// CacheMaintainer schedules cache tier updates off the request path
type CacheMaintainer interface {
	// Generation returns the invalidation generation of path
	Generation(path string) uint64

	// PopulateLocal fills the local tier unless path was invalidated after generation
	PopulateLocal(path, url string, generation uint64)

	// PopulateAll fills the distributed tier, then the local tier, unless path
	// was invalidated after generation
	PopulateAll(path, url string, generation uint64)

	// Invalidate removes path from the distributed tier, then the local tier
	Invalidate(path string)
}
