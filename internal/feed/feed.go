package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/core/loader"
	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
	"github.com/yndnr/recofeed-go/internal/telemetry/metric"
)

// Query is one page request as seen by a Fetcher.
type Query struct {
	Filters domain.Filters
	Offset  int
	Limit   int
	// Exclude lists URLs already shown. Only set when Config.ExcludeShown.
	Exclude []string
}

// Fetcher fetches one page of a feed.
type Fetcher[T domain.Item] func(ctx context.Context, q Query) ([]T, error)

// Feed is the state object of one feed.
type Feed[T domain.Item] struct {
	cfg      Config
	fetch    Fetcher[T]
	store    *snapshot.Store[T]
	settings *Settings
	loader   *loader.Loader[T]
	logger   logger.Logger
	now      func() time.Time

	// mu guards the fields below and serializes snapshot writes.
	mu          sync.Mutex
	filters     domain.Filters
	current     *loader.Request
	restored    bool
	mounted     bool
	lastUpdated time.Time
}

// Option configures a Feed.
type Option func(*options)

type options struct {
	logger   logger.Logger
	observer loader.Observer
	settings *Settings
	now      func() time.Time
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver forwards fetch outcomes to o.
func WithObserver(o loader.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithSettings persists applied filters in s. LoadSettings reads them back.
func WithSettings(s *Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a feed. store may be nil, in which case the feed always
// loads from the source. It panics if fetch is nil.
func New[T domain.Item](cfg Config, fetch Fetcher[T], store *snapshot.Store[T], opts ...Option) *Feed[T] {
	if fetch == nil {
		panic("feed: fetcher is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	o := options{logger: logger.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Feed[T]{
		cfg:      cfg,
		fetch:    fetch,
		store:    store,
		settings: o.settings,
		logger:   o.logger.With("feed", string(cfg.Kind)),
		now:      o.now,
		filters:  cfg.Filters,
	}

	lopts := []loader.Option[T]{
		loader.WithName[T](string(cfg.Kind)),
		loader.WithLogger[T](o.logger),
		loader.WithOnAccept[T](f.accepted),
	}
	if cfg.FirstPageCanBeLess {
		lopts = append(lopts, loader.WithFirstPageCanBeLess[T]())
	}
	if cfg.DoublePageSize {
		lopts = append(lopts, loader.WithDoublePageSize[T]())
	}
	if o.observer != nil {
		lopts = append(lopts, loader.WithObserver[T](o.observer))
	}
	f.loader = loader.New(cfg.PageSize, f.fetchPage, lopts...)

	return f
}

// fetchPage adapts the Fetcher to the loader, reading the filters at call
// time.
func (f *Feed[T]) fetchPage(ctx context.Context, offset, limit int) ([]T, error) {
	q := Query{Filters: f.Filters(), Offset: offset, Limit: limit}
	if f.cfg.ExcludeShown && offset > 0 {
		q.Exclude = domain.URLs(f.loader.Items())
	}
	return f.fetch(ctx, q)
}

// accepted runs after every accepted page.
func (f *Feed[T]) accepted(req *loader.Request, _ loader.State[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// A newer fresh load has already cleared the list, and a restore has
	// replaced it. After a newer LoadMore the list is still this page's, so
	// it is captured in case that request fails.
	if req != f.current && (f.current == nil || f.current.Fresh) {
		return
	}
	f.lastUpdated = f.now()
	f.restored = false
	f.mounted = true

	if err := f.captureLocked(context.Background()); err != nil {
		f.logger.Warn("snapshot capture failed", "error", err)
	}
}

func (f *Feed[T]) captureLocked(ctx context.Context) error {
	if f.store == nil {
		return nil
	}
	return f.store.Capture(ctx, f.loader.Items(), f.filters, f.now(), CurrentSchemaVersion)
}

// LoadSettings switches to the filters saved by the last ApplySettings,
// if any. It reports whether saved filters were found.
func (f *Feed[T]) LoadSettings(ctx context.Context) (bool, error) {
	if f.settings == nil {
		return false, nil
	}
	filters, ok, err := f.settings.Load(ctx, f.cfg.Kind)
	if err != nil || !ok {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = filters
	return true, nil
}

// Kind returns the feed kind.
func (f *Feed[T]) Kind() Kind {
	return f.cfg.Kind
}

// Config returns the configuration the feed was built with.
func (f *Feed[T]) Config() Config {
	return f.cfg
}

// Loader exposes the underlying loader for read access and in-place edits.
func (f *Feed[T]) Loader() *loader.Loader[T] {
	return f.loader
}

// Store returns the snapshot store, or nil.
func (f *Feed[T]) Store() *snapshot.Store[T] {
	return f.store
}

// Filters returns the current filters.
func (f *Feed[T]) Filters() domain.Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters
}

// Restored reports whether the items on display came from the snapshot
// and no page has been accepted since.
func (f *Feed[T]) Restored() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restored
}

// LastUpdated is the capture time of the restored snapshot, or the time
// the last page was accepted.
func (f *Feed[T]) LastUpdated() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUpdated
}

// Mount shows the snapshot if it matches the current filters, otherwise it
// loads the first page. It returns nil when the snapshot was used.
func (f *Feed[T]) Mount(ctx context.Context) *loader.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	ok, err := f.restoreLocked(ctx)
	if err != nil {
		f.logger.Warn("snapshot restore failed, loading from source", "error", err)
	}
	if ok {
		return nil
	}
	return f.loadLocked(ctx)
}

// Restore shows the snapshot if it matches the current filters and never
// loads. It reports whether the snapshot was used.
func (f *Feed[T]) Restore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restoreLocked(ctx)
}

func (f *Feed[T]) restoreLocked(ctx context.Context) (bool, error) {
	if f.store == nil {
		return false, nil
	}
	entry, ok, err := f.store.TryRestore(ctx, f.filters, MinSupportedSchemaVersion)
	if err != nil || !ok {
		return false, err
	}

	f.loader.Reset(entry.Items)
	f.current = nil
	f.restored = true
	f.mounted = true
	f.lastUpdated = entry.CapturedAt
	f.logger.Debug("feed restored from snapshot",
		"items", len(entry.Items),
		"captured_at", entry.CapturedAt)
	return true, nil
}

// Reload discards whatever is shown and loads the first page.
func (f *Feed[T]) Reload(ctx context.Context) *loader.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx)
}

func (f *Feed[T]) loadLocked(ctx context.Context) *loader.Request {
	f.restored = false
	f.current = f.loader.Load(ctx)
	return f.current
}

// LoadMore fetches the next page.
func (f *Feed[T]) LoadMore(ctx context.Context) *loader.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.loader.LoadMore(ctx)
	return f.current
}

// MarkDirty re-captures the current list, e.g. after an item was rated.
// A feed that was neither restored nor loaded has no list to capture.
func (f *Feed[T]) MarkDirty(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.mounted {
		return nil
	}
	return f.captureLocked(ctx)
}

// Mutate applies fn to every item and re-captures when anything changed.
// It returns the number of items changed.
func (f *Feed[T]) Mutate(ctx context.Context, fn func(*T) bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.loader.Update(fn)
	if n == 0 {
		return 0, nil
	}
	return n, f.captureLocked(ctx)
}

// ApplySettings clears the snapshot, switches to filters, saves them and
// reloads. Failed clears and saves are logged; the reload still happens
// and a stale entry will not match the new filters.
func (f *Feed[T]) ApplySettings(ctx context.Context, filters domain.Filters) *loader.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store != nil {
		if err := f.store.Clear(ctx); err != nil {
			f.logger.Warn("snapshot clear failed", "error", err)
		}
	}
	f.filters = filters
	if f.settings != nil {
		if err := f.settings.Save(ctx, f.cfg.Kind, filters); err != nil {
			f.logger.Warn("saving filters failed", "error", err)
		}
	}
	return f.loadLocked(ctx)
}

// ClearSnapshot drops the stored snapshot without touching the list.
func (f *Feed[T]) ClearSnapshot(ctx context.Context) error {
	if f.store == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Clear(ctx)
}

// Snapshot returns the stored entry without erasing it. Current reports
// whether Mount would restore it under the current filters.
func (f *Feed[T]) Snapshot(ctx context.Context) (*SnapshotView, bool, error) {
	if f.store == nil {
		return nil, false, fmt.Errorf("feed %s: %w", f.cfg.Kind,
			domain.ErrInvalidArgument.WithDetails("feed keeps no snapshot"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok, err := f.store.Peek(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return &SnapshotView{
		Current: entry.SchemaVersion >= MinSupportedSchemaVersion &&
			entry.Filters.Equal(f.filters),
		Kind:          f.cfg.Kind,
		Key:           f.store.Key(),
		Items:         toAny(entry.Items),
		Filters:       entry.Filters,
		CapturedAt:    entry.CapturedAt,
		SchemaVersion: entry.SchemaVersion,
	}, true, nil
}

// View returns a consistent, type-erased copy of the feed state.
func (f *Feed[T]) View() View {
	st := f.loader.State()

	f.mu.Lock()
	defer f.mu.Unlock()

	return View{
		Kind:        f.cfg.Kind,
		Items:       toAny(st.Items),
		HasMore:     st.HasMore,
		IsLoading:   st.IsLoading,
		PageSize:    st.PageSize,
		Restored:    f.restored,
		LastUpdated: f.lastUpdated,
		Filters:     f.filters,
	}
}

// Status implements metric.FeedSource.
func (f *Feed[T]) Status() metric.FeedStatus {
	st := f.loader.State()
	return metric.FeedStatus{
		Kind:      string(f.cfg.Kind),
		Items:     len(st.Items),
		PageSize:  st.PageSize,
		HasMore:   st.HasMore,
		IsLoading: st.IsLoading,
	}
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
