package cache

import (
	"context"
)

// Cache defines a path to URL cache tier. Entries are disposable projections
// of the store and are removed, never updated in place, when a mapping changes.
type Cache interface {
	// Get retrieves the URL cached for path
	Get(ctx context.Context, path string) (string, bool, error)

	// Set stores the URL for path
	Set(ctx context.Context, path, url string) error

	// Delete removes the entry for path; deleting a missing entry is not an error
	Delete(ctx context.Context, path string) error

	// Close releases the tier's resources
	Close() error
}

// Tier names, used in logs and metric labels
const (
	TierLocal       = "local"
	TierDistributed = "distributed"
	TierStore       = "store"
)
