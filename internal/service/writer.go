package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/joshdurbin/shortlink/internal/cache"
	"github.com/joshdurbin/shortlink/internal/domain"
	"github.com/joshdurbin/shortlink/internal/metrics"
	"github.com/joshdurbin/shortlink/internal/repository"
	"github.com/joshdurbin/shortlink/internal/shortener"
)

// DefaultConcurrency bounds how many requests of one batch are written at once
const DefaultConcurrency = 8

// WriterConfig holds writer settings
type WriterConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// writer implements Writer
type writer struct {
	repo        repository.MappingRepository
	encoder     *shortener.Encoder
	local       cache.Cache
	maintainer  CacheMaintainer
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
	concurrency int
}

// NewWriter creates a writer. Only the local tier is cleared inline; the
// maintainer clears the distributed tier.
func NewWriter(cfg WriterConfig, repo repository.MappingRepository, encoder *shortener.Encoder, local cache.Cache, maintainer CacheMaintainer, logger logrus.FieldLogger, m *metrics.Metrics) Writer {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &writer{
		repo:        repo,
		encoder:     encoder,
		local:       local,
		maintainer:  maintainer,
		logger:      logger,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Write handles every request independently. A failed request never affects its siblings.
func (w *writer) Write(ctx context.Context, requests []domain.WriteRequest) []domain.WriteResult {
	results := make([]domain.WriteResult, len(requests))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = w.writeOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (w *writer) writeOne(ctx context.Context, req domain.WriteRequest) domain.WriteResult {
	path := NormalizePath(req.Path)
	url := strings.TrimSpace(req.URL)

	var result domain.WriteResult
	switch {
	case path != "":
		result = w.writeExplicit(ctx, path, url)
	case url != "":
		result = w.writeShort(ctx, url)
	default:
		result = rejected(path, url, ErrEmptyRequest)
	}

	w.metrics.RecordWrite(result.Outcome.String())

	entry := w.logger.WithFields(logrus.Fields{
		"path":    result.Path,
		"url":     result.URL,
		"outcome": result.Outcome.String(),
	})
	switch result.Outcome {
	case domain.OutcomeFailed:
		entry.WithError(result.Err).Error("mapping write failed")
	case domain.OutcomeRejected:
		entry.WithError(result.Err).Info("mapping write rejected")
	default:
		entry.Debug("mapping written")
	}

	if result.Touched() {
		w.invalidate(ctx, result.Path)
	}

	return result
}

// writeExplicit updates the mapping stored under path, or creates it when path is new
func (w *writer) writeExplicit(ctx context.Context, path, url string) domain.WriteResult {
	if url == "" {
		return rejected(path, url, ErrEmptyURL)
	}
	if strings.HasPrefix(path, ReservedPrefix) {
		return rejected(path, url, ErrReservedPath)
	}

	_, err := w.repo.FindByPath(ctx, path)
	switch {
	case err == nil:
		updated, err := w.repo.UpdateURLByPath(ctx, path, url)
		if err != nil {
			return failed(path, url, fmt.Errorf("failed to update mapping %q: %w", path, err))
		}
		return domain.WriteResult{Outcome: domain.OutcomeUpdated, Path: updated.Path, URL: updated.URL, Mapping: updated}

	case errors.Is(err, repository.ErrNotFound):
		if !strings.Contains(path, "/") {
			return rejected(path, url, ErrMissingSeparator)
		}
		inserted, err := w.repo.Insert(ctx, &domain.Mapping{
			Path:      path,
			URL:       url,
			OriginURL: url,
		})
		if err != nil {
			return failed(path, url, fmt.Errorf("failed to create mapping %q: %w", path, err))
		}
		return domain.WriteResult{Outcome: domain.OutcomeCreated, Path: inserted.Path, URL: inserted.URL, Mapping: inserted}

	default:
		return failed(path, url, fmt.Errorf("failed to look up mapping %q: %w", path, err))
	}
}

// writeShort reuses a mapping for url or creates one under a hash-derived short ID
func (w *writer) writeShort(ctx context.Context, url string) domain.WriteResult {
	encoding := w.encoder.Encode(url)
	candidate := w.encoder.Candidate(encoding)

	colliding, err := w.repo.FindByShortIDPrefix(ctx, candidate)
	if err != nil {
		return failed("", url, fmt.Errorf("failed to look up short ID prefix %q: %w", candidate, err))
	}

	taken := make([]string, 0, len(colliding))
	for _, m := range colliding {
		if m.URL == url {
			return domain.WriteResult{Outcome: domain.OutcomeReused, Path: m.Path, URL: m.URL, Mapping: m}
		}
		if m.ShortID != nil {
			taken = append(taken, *m.ShortID)
		}
	}

	shortID, err := w.encoder.Pick(encoding, taken)
	if err != nil {
		return failed("", url, fmt.Errorf("failed to pick short ID for %q: %w", url, err))
	}

	inserted, err := w.repo.Insert(ctx, &domain.Mapping{
		ShortID:   &shortID,
		Path:      shortID,
		URL:       url,
		OriginURL: url,
	})
	if err != nil {
		return failed(shortID, url, fmt.Errorf("failed to create mapping %q: %w", shortID, err))
	}

	return domain.WriteResult{Outcome: domain.OutcomeCreated, Path: inserted.Path, URL: inserted.URL, Mapping: inserted}
}

// invalidate clears the local tier before the write returns, then schedules
// the removal from both tiers. Scheduling advances the path's generation, so a
// populate read from a tier before the write is discarded.
func (w *writer) invalidate(ctx context.Context, path string) {
	if err := w.local.Delete(ctx, path); err != nil {
		w.metrics.RecordCacheError(cache.TierLocal, "delete")
		w.logger.WithError(err).WithField("path", path).Warn("failed to invalidate local cache")
	}

	w.maintainer.Invalidate(path)
}

func rejected(path, url string, err error) domain.WriteResult {
	return domain.WriteResult{Outcome: domain.OutcomeRejected, Path: path, URL: url, Err: err}
}

func failed(path, url string, err error) domain.WriteResult {
	return domain.WriteResult{Outcome: domain.OutcomeFailed, Path: path, URL: url, Err: err}
}
