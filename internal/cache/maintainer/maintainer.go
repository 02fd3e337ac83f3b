// Package maintainer runs cache population and invalidation off the request
// path. Tasks are sharded by path onto a fixed set of workers, so queued tasks
// for the same path apply in the order they were enqueued. An invalidation that
// overflows a full queue may land after later tasks; populates carry the
// invalidation generation they were read under and are discarded once it moves.
package maintainer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/joshdurbin/shortlink/internal/cache"
	"github.com/joshdurbin/shortlink/internal/metrics"
)

// Config holds the worker pool settings
type Config struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// DefaultConfig returns the default worker pool settings
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueSize:   1024,
		TaskTimeout: 2 * time.Second,
	}
}

// generationStripes sizes the generation table. Paths sharing a stripe only
// lose populates to each other's invalidations.
const generationStripes = 4096

type kind int

const (
	kindPopulate kind = iota
	kindInvalidate
)

func (k kind) String() string {
	if k == kindInvalidate {
		return "invalidate"
	}
	return "populate"
}

type target struct {
	tier  string
	cache cache.Cache
}

type task struct {
	kind       kind
	path       string
	url        string
	generation uint64
	targets    []target
}

// Maintainer applies populate and invalidate tasks to the cache tiers in the background
type Maintainer struct {
	local       cache.Cache
	distributed cache.Cache
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
	timeout     time.Duration

	generations []atomic.Uint64

	shards   []chan task
	mu       sync.RWMutex
	stopped  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	wg       sync.WaitGroup
	overflow sync.WaitGroup
}

// New starts the workers. distributed may be nil when no shared tier is configured.
func New(cfg Config, local, distributed cache.Cache, logger logrus.FieldLogger, m *metrics.Metrics) *Maintainer {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}

	mt := &Maintainer{
		local:       local,
		distributed: distributed,
		logger:      logger,
		metrics:     m,
		timeout:     cfg.TaskTimeout,
		generations: make([]atomic.Uint64, generationStripes),
		shards:      make([]chan task, cfg.Workers),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	for i := range mt.shards {
		mt.shards[i] = make(chan task, cfg.QueueSize)
		mt.wg.Add(1)
		go mt.worker(mt.shards[i])
	}

	return mt
}

// Generation returns the invalidation generation of path. Callers read it
// before their first tier lookup and hand it back with the populate.
func (m *Maintainer) Generation(path string) uint64 {
	return m.stripe(path).Load()
}

// PopulateLocal fills the local tier after a distributed-tier hit
func (m *Maintainer) PopulateLocal(path, url string, generation uint64) {
	m.enqueue(task{
		kind:       kindPopulate,
		path:       path,
		url:        url,
		generation: generation,
		targets:    []target{{tier: cache.TierLocal, cache: m.local}},
	})
}

// PopulateAll fills the distributed tier, then the local tier, after a store hit
func (m *Maintainer) PopulateAll(path, url string, generation uint64) {
	m.enqueue(task{
		kind:       kindPopulate,
		path:       path,
		url:        url,
		generation: generation,
		targets:    m.allTargets(),
	})
}

// Invalidate removes path from the distributed tier, then the local tier.
// The generation of path advances immediately and again once the deletes
// have been applied, so a populate read before either point is discarded.
func (m *Maintainer) Invalidate(path string) {
	m.stripe(path).Add(1)
	m.enqueue(task{
		kind:    kindInvalidate,
		path:    path,
		targets: m.allTargets(),
	})
}

// Close stops accepting tasks and waits for queued ones to finish
func (m *Maintainer) Close() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.stopCh)
	m.mu.Unlock()

	// workers keep consuming until every overflowed invalidation has been handed over
	m.overflow.Wait()
	close(m.doneCh)
	m.wg.Wait()
	return nil
}

func (m *Maintainer) stripe(path string) *atomic.Uint64 {
	return &m.generations[xxhash.Sum64String(path)%generationStripes]
}

func (m *Maintainer) allTargets() []target {
	if m.distributed == nil {
		return []target{{tier: cache.TierLocal, cache: m.local}}
	}
	return []target{
		{tier: cache.TierDistributed, cache: m.distributed},
		{tier: cache.TierLocal, cache: m.local},
	}
}

func (m *Maintainer) enqueue(t task) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stopped {
		m.metrics.RecordTask(t.kind.String(), "dropped")
		return
	}

	shard := m.shards[xxhash.Sum64String(t.path)%uint64(len(m.shards))]

	select {
	case shard <- t:
		return
	default:
	}

	if t.kind == kindPopulate {
		// a missed populate only costs a slower read later
		m.metrics.RecordTask(t.kind.String(), "dropped")
		m.logger.WithField("path", t.path).Debug("cache maintenance queue full, dropping populate")
		return
	}

	// invalidations must not be lost; wait for room without blocking the caller
	m.metrics.RecordTask(t.kind.String(), "overflow")
	m.overflow.Add(1)
	go func() {
		defer m.overflow.Done()
		select {
		case shard <- t:
		case <-m.stopCh:
			m.run(t)
		}
	}()
}

func (m *Maintainer) worker(tasks chan task) {
	defer m.wg.Done()

	for {
		select {
		case t := <-tasks:
			m.run(t)
		case <-m.doneCh:
			// drain what is already queued
			for {
				select {
				case t := <-tasks:
					m.run(t)
				default:
					return
				}
			}
		}
	}
}

func (m *Maintainer) run(t task) {
	result := "ok"

	for _, tg := range t.targets {
		if t.kind == kindPopulate && m.Generation(t.path) != t.generation {
			m.metrics.RecordTask(t.kind.String(), "stale")
			m.logger.WithField("path", t.path).Debug("discarding populate read before an invalidation")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		var err error
		if t.kind == kindInvalidate {
			err = tg.cache.Delete(ctx, t.path)
		} else {
			err = tg.cache.Set(ctx, t.path, t.url)
		}
		cancel()

		if err != nil {
			result = "error"
			m.metrics.RecordCacheError(tg.tier, t.kind.String())
			m.logger.WithError(err).WithFields(logrus.Fields{
				"path": t.path,
				"tier": tg.tier,
				"task": t.kind.String(),
			}).Warn("cache maintenance task failed")
		}
	}

	if t.kind == kindInvalidate {
		m.stripe(t.path).Add(1)
	}

	m.metrics.RecordTask(t.kind.String(), result)
}
