// Package store implements the generic resource store: one instance
// mediates all reads and writes for one remote collection, enforcing
// the ordering and consistency rules that per-page ad hoc code tends to
// get wrong (races on rapid filter changes, double submits, stale data
// shown after a failed write).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/internal/transport"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// DefaultPageSize is used when a descriptor does not set one. The true
// page size is server configuration; treat this as a fallback, not a
// contract.
const DefaultPageSize = 50

// Phase is the listing-track state of a store.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Descriptor identifies the remote collection a store manages.
type Descriptor struct {
	// Path is the collection path relative to the API base, e.g.
	// "/currencies/".
	Path string
	// PageSize is the listing page size; DefaultPageSize when zero.
	PageSize int
}

// Option configures optional store collaborators.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// WithLogger attaches a logger to the store.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics attaches a metrics collector to the store.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// Store synchronizes one remote collection. The listing track
// (Idle → Loading → Ready|Error) and the mutation track are
// independent: a listing may refresh while no mutation is pending, and
// each successful mutation triggers exactly one listing refresh.
type Store[T any] struct {
	api      *transport.Client
	desc     Descriptor
	resource string
	logger   *zap.Logger
	metrics  *metrics.Collector

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	query    Query
	current  *Page[T]
	phase    Phase
	lastErr  error
	listGen  uint64
	mutating bool
	closed   bool
}

// New creates a store for the collection described by desc.
func New[T any](api *transport.Client, desc Descriptor, opts ...Option) (*Store[T], error) {
	if api == nil {
		return nil, fmt.Errorf("transport client is required")
	}
	if desc.Path == "" {
		return nil, fmt.Errorf("descriptor path is required")
	}
	if !strings.HasPrefix(desc.Path, "/") {
		desc.Path = "/" + desc.Path
	}
	if !strings.HasSuffix(desc.Path, "/") {
		desc.Path += "/"
	}
	if desc.PageSize <= 0 {
		desc.PageSize = DefaultPageSize
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store[T]{
		api:      api,
		desc:     desc,
		resource: strings.Trim(desc.Path, "/"),
		logger:   o.logger,
		metrics:  o.metrics,
		baseCtx:  ctx,
		cancel:   cancel,
		query:    Query{Page: 1},
		phase:    PhaseIdle,
	}, nil
}

// Descriptor returns the store's collection descriptor.
func (s *Store[T]) Descriptor() Descriptor {
	return s.desc
}

// Query returns a snapshot of the current listing parameters.
func (s *Store[T]) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.clone()
}

// Current returns the cached page, if any.
func (s *Store[T]) Current() (Page[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Page[T]{}, false
	}
	return *s.current, true
}

// Phase returns the listing-track state.
func (s *Store[T]) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the last listing error, if the store is in PhaseError.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Seed replaces the listing parameters without issuing a request, for
// consumers that arrive with a complete query up front (route params,
// CLI flags). A page below 1 is clamped to 1.
func (s *Store[T]) Seed(q Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	if q.Page < 1 {
		q.Page = 1
	}
	s.query = q.clone()
	return nil
}

// List issues a listing request for the current query.
func (s *Store[T]) List(ctx context.Context) (Page[T], error) {
	return s.relist(ctx, nil)
}

// SetFilter updates one filter and re-lists. Changing a filter always
// resets the page to 1. An empty value removes the filter entirely; it
// is never sent as an empty constraint.
func (s *Store[T]) SetFilter(ctx context.Context, name, value string) (Page[T], error) {
	return s.relist(ctx, func(q *Query) {
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		if value == "" {
			delete(q.Filters, name)
		} else {
			q.Filters[name] = value
		}
		q.Page = 1
	})
}

// SetPage moves to the given page and re-lists.
func (s *Store[T]) SetPage(ctx context.Context, page int) (Page[T], error) {
	if page < 1 {
		return Page[T]{}, fmt.Errorf("page must be >= 1, got %d", page)
	}
	return s.relist(ctx, func(q *Query) {
		q.Page = page
	})
}

// SetSort changes the ordering and re-lists from page 1.
func (s *Store[T]) SetSort(ctx context.Context, sort Sort) (Page[T], error) {
	return s.relist(ctx, func(q *Query) {
		q.Sort = sort
		q.Page = 1
	})
}

// SetSearch changes the free-text search term and re-lists from page 1.
func (s *Store[T]) SetSearch(ctx context.Context, term string) (Page[T], error) {
	return s.relist(ctx, func(q *Query) {
		q.Search = term
		q.Page = 1
	})
}

// relist applies an optional query mutation, then issues a listing
// tagged with a fresh generation. Only the response for the newest
// generation is committed; anything older is discarded as stale.
func (s *Store[T]) relist(ctx context.Context, mutate func(*Query)) (Page[T], error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Page[T]{}, ledger.ErrStoreClosed
	}
	if mutate != nil {
		mutate(&s.query)
	}
	s.listGen++
	gen := s.listGen
	query := s.query.clone()
	s.phase = PhaseLoading
	s.mu.Unlock()

	start := time.Now()
	page, err := s.fetch(ctx, query)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Page[T]{}, ledger.ErrStoreClosed
	}
	if gen != s.listGen {
		s.metrics.ObserveList(s.resource, metrics.OutcomeStale, elapsed)
		s.logger.Debug("discarded stale listing response",
			zap.String("resource", s.resource),
			zap.Uint64("generation", gen))
		return Page[T]{}, ledger.ErrStaleQuery
	}
	if err != nil {
		s.phase = PhaseError
		s.lastErr = err
		s.metrics.ObserveList(s.resource, metrics.OutcomeError, elapsed)
		return Page[T]{}, err
	}
	s.phase = PhaseReady
	s.lastErr = nil
	committed := page
	s.current = &committed
	s.metrics.ObserveList(s.resource, metrics.OutcomeOK, elapsed)
	return page, nil
}

func (s *Store[T]) fetch(ctx context.Context, query Query) (Page[T], error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	var raw json.RawMessage
	if err := s.api.Get(ctx, s.desc.Path, query.params(s.desc.PageSize), &raw); err != nil {
		return Page[T]{}, err
	}
	return decodePage[T](raw, s.desc.PageSize)
}

// Get fetches a single record directly, bypassing the page cache. Edit
// dialogs open rarely relative to listing, so a round trip is fine.
func (s *Store[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return zero, ledger.ErrStoreClosed
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	var out T
	if err := s.api.Get(ctx, s.itemPath(id), nil, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// Create posts a new record. Single-flight: an overlapping mutation on
// this store fails fast with ledger.ErrConcurrentMutation. On success
// the cached page is invalidated and re-listed; on failure it is left
// untouched.
func (s *Store[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T
	if err := s.beginMutation(); err != nil {
		return zero, err
	}
	defer s.endMutation()

	reqCtx, cancel := s.scope(ctx)
	var out T
	err := s.api.Post(reqCtx, s.desc.Path, payload, &out)
	cancel()
	if err != nil {
		s.metrics.ObserveMutation(s.resource, metrics.MutationCreate, metrics.OutcomeError)
		return zero, err
	}
	s.metrics.ObserveMutation(s.resource, metrics.MutationCreate, metrics.OutcomeOK)
	s.refresh(ctx)
	return out, nil
}

// Update puts changed fields for one record. Same single-flight and
// refresh rules as Create.
func (s *Store[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	var zero T
	if err := s.beginMutation(); err != nil {
		return zero, err
	}
	defer s.endMutation()

	reqCtx, cancel := s.scope(ctx)
	var out T
	err := s.api.Put(reqCtx, s.itemPath(id), payload, &out)
	cancel()
	if err != nil {
		s.metrics.ObserveMutation(s.resource, metrics.MutationUpdate, metrics.OutcomeError)
		return zero, err
	}
	s.metrics.ObserveMutation(s.resource, metrics.MutationUpdate, metrics.OutcomeOK)
	s.refresh(ctx)
	return out, nil
}

// Delete removes one record. Same single-flight and refresh rules as
// Create.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	if err := s.beginMutation(); err != nil {
		return err
	}
	defer s.endMutation()

	reqCtx, cancel := s.scope(ctx)
	err := s.api.Delete(reqCtx, s.itemPath(id))
	cancel()
	if err != nil {
		s.metrics.ObserveMutation(s.resource, metrics.MutationDelete, metrics.OutcomeError)
		return err
	}
	s.metrics.ObserveMutation(s.resource, metrics.MutationDelete, metrics.OutcomeOK)
	s.refresh(ctx)
	return nil
}

// Close tears the store down. In-flight requests are cancelled and
// their eventual resolution commits nothing.
func (s *Store[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.current = nil
	s.phase = PhaseIdle
	s.lastErr = nil
	s.mu.Unlock()
	s.cancel()
}

func (s *Store[T]) beginMutation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	if s.mutating {
		return ledger.ErrConcurrentMutation
	}
	s.mutating = true
	return nil
}

func (s *Store[T]) endMutation() {
	s.mu.Lock()
	s.mutating = false
	s.mu.Unlock()
}

// refresh drops the cached page and re-lists with the current query.
// A refresh failure does not undo the mutation; the store just ends up
// in PhaseError until the next listing.
func (s *Store[T]) refresh(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	_, err := s.List(ctx)
	if err != nil && !errors.Is(err, ledger.ErrStaleQuery) && !errors.Is(err, ledger.ErrStoreClosed) {
		s.logger.Warn("listing refresh after mutation failed",
			zap.String("resource", s.resource),
			zap.Error(err))
	}
}

// scope derives a request context that is also cancelled when the
// store is closed.
func (s *Store[T]) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Store[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", s.desc.Path, id)
}
