// Package refdata provides read-through caches for reference data
// (currencies, cash registers, employees, income/expense items). Each
// cache has its own lifetime and explicit invalidation, so document
// pages can share prefetched reference lists instead of re-fetching
// them on every mount.
package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/metrics"
)

// ErrNotCached is returned by backends when a key has no snapshot.
var ErrNotCached = errors.New("refdata: key not cached")

// DefaultTTL bounds how long a reference snapshot is served without a
// reload.
const DefaultTTL = 15 * time.Minute

// Backend persists reference-data snapshots between processes. A nil
// backend keeps the cache purely in memory.
type Backend interface {
	Load(key string) (data []byte, fetchedAt time.Time, err error)
	Save(key string, data []byte, fetchedAt time.Time) error
	Delete(key string) error
	Close() error
}

// Loader fetches the full reference list from the backend API.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Option configures optional cache collaborators.
type Option func(*options)

type options struct {
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// WithBackend attaches a persistent snapshot backend.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// withClock overrides the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a keyed read-through cache for one reference resource.
type Cache[T any] struct {
	key     string
	ttl     time.Duration
	loader  Loader[T]
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time

	mu        sync.Mutex
	items     []T
	fetchedAt time.Time
	valid     bool
}

// New creates a cache for the given key. TTL defaults to DefaultTTL
// when zero.
func New[T any](key string, ttl time.Duration, loader Loader[T], opts ...Option) (*Cache[T], error) {
	if key == "" {
		return nil, fmt.Errorf("cache key is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}

	return &Cache[T]{
		key:     key,
		ttl:     ttl,
		loader:  loader,
		backend: o.backend,
		logger:  o.logger,
		metrics: o.metrics,
		now:     o.now,
	}, nil
}

// Get returns the cached reference list, reloading through the loader
// when the snapshot is missing or older than the TTL.
func (c *Cache[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		c.metrics.ObserveRefdataLookup(c.key, true)
		return c.snapshot(), nil
	}

	if !c.valid && c.backend != nil {
		if items, fetchedAt, ok := c.loadBackend(); ok && c.now().Sub(fetchedAt) < c.ttl {
			c.items = items
			c.fetchedAt = fetchedAt
			c.valid = true
			c.metrics.ObserveRefdataLookup(c.key, true)
			return c.snapshot(), nil
		}
	}

	c.metrics.ObserveRefdataLookup(c.key, false)
	items, err := c.loader(ctx)
	if err != nil {
		// A stale snapshot is still better than nothing when the
		// backend is unreachable.
		if c.valid {
			c.logger.Warn("serving stale reference data after reload failure",
				zap.String("key", c.key),
				zap.Error(err))
			return c.snapshot(), nil
		}
		return nil, err
	}

	c.items = items
	c.fetchedAt = c.now()
	c.valid = true
	c.saveBackend()
	return c.snapshot(), nil
}

// Invalidate drops the in-memory snapshot and any persisted one. The
// next Get reloads from the API.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.valid = false
	if c.backend != nil {
		if err := c.backend.Delete(c.key); err != nil && !errors.Is(err, ErrNotCached) {
			c.logger.Warn("failed to drop persisted reference data",
				zap.String("key", c.key),
				zap.Error(err))
		}
	}
}

// FetchedAt returns when the current snapshot was loaded.
func (c *Cache[T]) FetchedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt, c.valid
}

func (c *Cache[T]) snapshot() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cache[T]) loadBackend() ([]T, time.Time, bool) {
	data, fetchedAt, err := c.backend.Load(c.key)
	if err != nil {
		if !errors.Is(err, ErrNotCached) {
			c.logger.Warn("failed to load persisted reference data",
				zap.String("key", c.key),
				zap.Error(err))
		}
		return nil, time.Time{}, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("corrupt persisted reference data",
			zap.String("key", c.key),
			zap.Error(err))
		return nil, time.Time{}, false
	}
	return items, fetchedAt, true
}

func (c *Cache[T]) saveBackend() {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(c.items)
	if err != nil {
		return
	}
	if err := c.backend.Save(c.key, data, c.fetchedAt); err != nil {
		c.logger.Warn("failed to persist reference data",
			zap.String("key", c.key),
			zap.Error(err))
	}
}
