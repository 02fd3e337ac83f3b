package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joshdurbin/shortlink/internal/cache"
	"github.com/joshdurbin/shortlink/internal/metrics"
	"github.com/joshdurbin/shortlink/internal/repository"
)

// resolver implements Resolver over local cache, distributed cache and store
type resolver struct {
	local       cache.Cache
	distributed cache.Cache
	repo        repository.MappingRepository
	maintainer  CacheMaintainer
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

// NewResolver creates a resolver. distributed may be nil.
func NewResolver(local, distributed cache.Cache, repo repository.MappingRepository, maintainer CacheMaintainer, logger logrus.FieldLogger, m *metrics.Metrics) Resolver {
	return &resolver{
		local:       local,
		distributed: distributed,
		repo:        repo,
		maintainer:  maintainer,
		logger:      logger,
		metrics:     m,
	}
}

// NormalizePath trims surrounding whitespace and one leading slash
func NormalizePath(path string) string {
	return strings.TrimPrefix(strings.TrimSpace(path), "/")
}

// Resolve consults each tier only when the faster one missed
func (r *resolver) Resolve(ctx context.Context, rawPath string) (string, bool, error) {
	start := time.Now()
	path := NormalizePath(rawPath)
	if path == "" {
		return "", false, nil
	}

	// read before any tier so a populate racing an invalidation is discarded
	generation := r.maintainer.Generation(path)

	url, ok, err := r.local.Get(ctx, path)
	if err != nil {
		r.cacheFailure(err, cache.TierLocal, path)
	} else if ok {
		r.metrics.RecordResolve(cache.TierLocal, time.Since(start).Seconds())
		return url, true, nil
	}

	if r.distributed != nil {
		url, ok, err := r.distributed.Get(ctx, path)
		if err != nil {
			r.cacheFailure(err, cache.TierDistributed, path)
		} else if ok {
			r.maintainer.PopulateLocal(path, url, generation)
			r.metrics.RecordResolve(cache.TierDistributed, time.Since(start).Seconds())
			return url, true, nil
		}
	}

	mapping, err := r.repo.FindByPath(ctx, path)
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.RecordResolve("miss", time.Since(start).Seconds())
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	r.maintainer.PopulateAll(path, mapping.URL, generation)
	r.metrics.RecordResolve(cache.TierStore, time.Since(start).Seconds())
	return mapping.URL, true, nil
}

func (r *resolver) cacheFailure(err error, tier, path string) {
	r.metrics.RecordCacheError(tier, "get")
	r.logger.WithError(err).WithFields(logrus.Fields{
		"path": path,
		"tier": tier,
	}).Warn("cache lookup failed, falling through")
}
