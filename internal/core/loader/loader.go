package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
)

const (
	// minDoubledPageSize is the floor applied when a LoadMore doubles the page size.
	minDoubledPageSize = 100

	// minShortFirstPage is the smallest first page still taken as "more may
	// follow" when WithFirstPageCanBeLess is set.
	minShortFirstPage = 5
)

// FetchFunc fetches up to limit items starting at offset. It closes over the
// feed's current filters. A returned error marks the request as failed; an
// empty (or nil) slice with a nil error is an accepted empty page.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Observer receives one notification per completed fetch.
type Observer interface {
	ObserveFetch(feed string, outcome string, elapsed time.Duration)
}

// State is a consistent copy of a loader's read state.
type State[T any] struct {
	Items     []T  `json:"items"`
	HasMore   bool `json:"has_more"`
	IsLoading bool `json:"is_loading"`
	PageSize  int  `json:"page_size"`
}

// Loader is an incremental fetch engine for one feed.
// All methods are safe for concurrent use.
type Loader[T any] struct {
	name               string
	initialPageSize    int
	fetch              FetchFunc[T]
	firstPageCanBeLess bool
	doublePageSize     bool
	onAccept           func(*Request, State[T])
	log                logger.Logger
	observer           Observer

	mu        sync.Mutex
	pageSize  int
	items     []T
	hasMore   bool
	isLoading bool
	inFlight  ulid.ULID
}

// Option configures a Loader.
type Option[T any] func(*Loader[T])

// WithFirstPageCanBeLess treats a short first page of at least five items as
// "more may follow". Feeds that filter candidates (exclusion lists) need it.
func WithFirstPageCanBeLess[T any]() Option[T] {
	return func(l *Loader[T]) { l.firstPageCanBeLess = true }
}

// WithDoublePageSize grows the page size on every LoadMore.
func WithDoublePageSize[T any]() Option[T] {
	return func(l *Loader[T]) { l.doublePageSize = true }
}

// WithInitialItems seeds the list, e.g. from a restored snapshot.
func WithInitialItems[T any](items []T) Option[T] {
	return func(l *Loader[T]) {
		l.items = slices.Clone(items)
		l.hasMore = len(items) > 0
	}
}

// WithOnAccept registers a callback fired after every accepted response.
// It runs outside the loader lock and may call back into the loader.
func WithOnAccept[T any](fn func(*Request, State[T])) Option[T] {
	return func(l *Loader[T]) { l.onAccept = fn }
}

// WithName labels logs and metrics.
func WithName[T any](name string) Option[T] {
	return func(l *Loader[T]) { l.name = name }
}

// WithLogger sets the logger.
func WithLogger[T any](log logger.Logger) Option[T] {
	return func(l *Loader[T]) { l.log = log }
}

// WithObserver sets the metrics observer.
func WithObserver[T any](o Observer) Option[T] {
	return func(l *Loader[T]) { l.observer = o }
}

// New creates a Loader. It panics if fetch is nil or initialPageSize is not
// positive: both are programming errors, not runtime conditions.
func New[T any](initialPageSize int, fetch FetchFunc[T], opts ...Option[T]) *Loader[T] {
	if fetch == nil {
		panic("loader: fetch function is required")
	}
	if initialPageSize <= 0 {
		panic(fmt.Sprintf("loader: page size must be positive, got %d", initialPageSize))
	}

	l := &Loader[T]{
		name:            "feed",
		initialPageSize: initialPageSize,
		pageSize:        initialPageSize,
		fetch:           fetch,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Default()
	}
	l.log = l.log.With("feed", l.name)

	return l
}

// Load discards the current items and fetches the first page.
func (l *Loader[T]) Load(ctx context.Context) *Request {
	l.mu.Lock()
	l.items = nil
	l.pageSize = l.initialPageSize
	req := l.issueLocked(0, true)
	l.mu.Unlock()

	go l.run(ctx, req)
	return req
}

// LoadMore fetches the page following the current items.
func (l *Loader[T]) LoadMore(ctx context.Context) *Request {
	l.mu.Lock()
	if l.doublePageSize {
		l.pageSize = max(l.pageSize*2, minDoubledPageSize)
	}
	req := l.issueLocked(len(l.items), false)
	l.mu.Unlock()

	go l.run(ctx, req)
	return req
}

// Reset replaces the list without fetching and supersedes any request in
// flight. Used to show restored items before the network answers.
func (l *Loader[T]) Reset(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = slices.Clone(items)
	l.hasMore = len(items) > 0
	l.isLoading = false
	l.pageSize = l.initialPageSize
	l.inFlight = ulid.Make()
}

// issueLocked mints a token for a new request. Caller holds l.mu.
func (l *Loader[T]) issueLocked(offset int, fresh bool) *Request {
	req := newRequest(offset, l.pageSize, fresh)
	l.inFlight = req.ID
	l.isLoading = true
	return req
}

func (l *Loader[T]) run(ctx context.Context, req *Request) {
	start := time.Now()
	items, err := l.safeFetch(ctx, req)
	elapsed := time.Since(start)

	outcome, state := l.apply(req, items, err)

	switch outcome {
	case OutcomeAccepted:
		l.log.Debug("page accepted",
			"request_id", req.ID.String(),
			"offset", req.Offset,
			"limit", req.Limit,
			"received", len(items),
			"has_more", state.HasMore)
	case OutcomeStale:
		l.log.Debug("stale response discarded",
			"request_id", req.ID.String(),
			"offset", req.Offset)
	case OutcomeFailed:
		l.log.Warn("page fetch failed",
			"request_id", req.ID.String(),
			"offset", req.Offset,
			"limit", req.Limit,
			"error", err)
	}

	if l.observer != nil {
		l.observer.ObserveFetch(l.name, outcome.String(), elapsed)
	}

	if outcome == OutcomeAccepted && l.onAccept != nil {
		l.onAccept(req, state)
	}

	if outcome == OutcomeFailed {
		req.finish(outcome, err)
	} else {
		req.finish(outcome, nil)
	}
}

// safeFetch converts a panicking fetch into an error so nothing escapes the
// loader goroutine.
func (l *Loader[T]) safeFetch(ctx context.Context, req *Request) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader: fetch panicked: %v", r)
		}
	}()
	return l.fetch(ctx, req.Offset, req.Limit)
}

// apply updates state if req is still current.
func (l *Loader[T]) apply(req *Request, items []T, err error) (Outcome, State[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight != req.ID {
		return OutcomeStale, State[T]{}
	}

	l.isLoading = false
	if err != nil {
		return OutcomeFailed, l.stateLocked()
	}

	if req.Fresh {
		l.items = slices.Clone(items)
	} else {
		l.items = append(slices.Clip(l.items), items...)
	}
	l.hasMore = len(items) == req.Limit ||
		(l.firstPageCanBeLess && req.Fresh && len(items) >= minShortFirstPage)

	return OutcomeAccepted, l.stateLocked()
}

func (l *Loader[T]) stateLocked() State[T] {
	return State[T]{
		Items:     slices.Clone(l.items),
		HasMore:   l.hasMore,
		IsLoading: l.isLoading,
		PageSize:  l.pageSize,
	}
}

// State returns a consistent copy of the read state.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

// Items returns a copy of the current list.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Len returns the number of items currently held.
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// HasMore reports whether another page is believed available.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// IsLoading reports whether the current request is still in flight.
func (l *Loader[T]) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isLoading
}

// PageSize returns the page size of the most recently issued request.
func (l *Loader[T]) PageSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageSize
}

// Update rewrites items in place, e.g. after the user rated one. It does
// not supersede requests in flight. fn returns false to leave an item as is.
// Returns the number of items changed.
func (l *Loader[T]) Update(fn func(*T) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := 0
	for i := range l.items {
		if fn(&l.items[i]) {
			changed++
		}
	}
	return changed
}
