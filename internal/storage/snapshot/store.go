package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// DefaultCap is the maximum number of items kept per snapshot.
const DefaultCap = 200

// RestoreOutcome classifies a TryRestore call.
type RestoreOutcome string

const (
	RestoreHit      RestoreOutcome = "hit"
	RestoreMiss     RestoreOutcome = "miss"
	RestoreMismatch RestoreOutcome = "mismatch"
	RestoreOutdated RestoreOutcome = "outdated"
	RestoreCorrupt  RestoreOutcome = "corrupt"
	RestoreError    RestoreOutcome = "error"
)

// Metrics receives store events.
type Metrics interface {
	ObserveRestore(key string, outcome RestoreOutcome)
	ObserveCapture(key string, items int, err error)
}

// Entry is a restored snapshot.
type Entry[T any] struct {
	Items         []T
	Filters       domain.Filters
	CapturedAt    time.Time
	SchemaVersion int
}

// Store persists one feed's snapshot under a single KV key.
type Store[T any] struct {
	kv      storage.KV
	key     []byte
	cap     int
	cipher  adaptive.Cipher
	logger  logger.Logger
	metrics Metrics
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithCipher seals stored records with c.
func WithCipher[T any](c adaptive.Cipher) Option[T] {
	return func(s *Store[T]) { s.cipher = c }
}

// WithLogger sets the logger.
func WithLogger[T any](l logger.Logger) Option[T] {
	return func(s *Store[T]) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics[T any](m Metrics) Option[T] {
	return func(s *Store[T]) { s.metrics = m }
}

// WithCap overrides DefaultCap. Non-positive values are ignored.
func WithCap[T any](n int) Option[T] {
	return func(s *Store[T]) {
		if n > 0 {
			s.cap = n
		}
	}
}

// NewStore creates a store for key. It panics if kv is nil or key is
// empty.
func NewStore[T any](kv storage.KV, key string, opts ...Option[T]) *Store[T] {
	if kv == nil {
		panic("snapshot: nil kv")
	}
	if key == "" {
		panic("snapshot: empty key")
	}

	s := &Store[T]{
		kv:     kv,
		key:    []byte(key),
		cap:    DefaultCap,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("snapshot", key)
	return s
}

// Key returns the KV key this store owns.
func (s *Store[T]) Key() string {
	return string(s.key)
}

// Cap returns the maximum number of items kept.
func (s *Store[T]) Cap() int {
	return s.cap
}

// TryRestore returns the stored entry if its schema version is at least
// minVersion and its filters equal filters. Any other stored entry is
// erased and reported as a miss. Only KV failures are returned as errors.
func (s *Store[T]) TryRestore(ctx context.Context, filters domain.Filters, minVersion int) (*Entry[T], bool, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			s.observeRestore(RestoreMiss)
			return nil, false, nil
		}
		s.observeRestore(RestoreError)
		return nil, false, domain.ErrSnapshotStorage.WithDetails("read " + s.Key()).WithCause(err)
	}

	rec, err := decode[T](data, s.cipher, s.key)
	if err != nil {
		s.logger.Warn("discarding unreadable snapshot",
			"error", domain.ErrSnapshotCorrupt.WithCause(err))
		return s.erase(ctx, RestoreCorrupt)
	}

	if rec.SchemaVersion < minVersion {
		s.logger.Debug("discarding outdated snapshot",
			"schema_version", rec.SchemaVersion,
			"min_version", minVersion)
		return s.erase(ctx, RestoreOutdated)
	}

	if !rec.Filters.Equal(filters) {
		s.logger.Debug("discarding snapshot taken under different filters",
			"stored", rec.Filters,
			"requested", filters)
		return s.erase(ctx, RestoreMismatch)
	}

	if rec.Items == nil {
		rec.Items = []T{}
	}
	s.observeRestore(RestoreHit)
	return &Entry[T]{
		Items:         rec.Items,
		Filters:       rec.Filters,
		CapturedAt:    rec.CapturedAt,
		SchemaVersion: rec.SchemaVersion,
	}, true, nil
}

// Capture overwrites the stored entry with the last Cap() items.
func (s *Store[T]) Capture(ctx context.Context, items []T, filters domain.Filters, capturedAt time.Time, schemaVersion int) error {
	if len(items) > s.cap {
		items = items[len(items)-s.cap:]
	}
	if items == nil {
		items = []T{}
	}

	data, err := encode(record[T]{
		SchemaVersion: schemaVersion,
		CapturedAt:    capturedAt.UTC(),
		Filters:       filters,
		Items:         items,
	}, s.cipher, s.key)
	if err != nil {
		s.observeCapture(len(items), err)
		return domain.ErrSnapshotStorage.WithDetails("encode " + s.Key()).WithCause(err)
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.observeCapture(len(items), err)
		return domain.ErrSnapshotStorage.WithDetails("write " + s.Key()).WithCause(err)
	}

	s.observeCapture(len(items), nil)
	s.logger.Debug("snapshot captured", "items", len(items), "bytes", len(data))
	return nil
}

// Clear removes the stored entry. Clearing an empty store is a no-op.
func (s *Store[T]) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return domain.ErrSnapshotStorage.WithDetails("delete " + s.Key()).WithCause(err)
	}
	return nil
}

func (s *Store[T]) erase(ctx context.Context, outcome RestoreOutcome) (*Entry[T], bool, error) {
	s.observeRestore(outcome)
	if err := s.Clear(ctx); err != nil {
		s.logger.Warn("failed to erase snapshot", "error", err)
	}
	return nil, false, nil
}

func (s *Store[T]) observeRestore(outcome RestoreOutcome) {
	if s.metrics != nil {
		s.metrics.ObserveRestore(s.Key(), outcome)
	}
}

func (s *Store[T]) observeCapture(items int, err error) {
	if s.metrics != nil {
		s.metrics.ObserveCapture(s.Key(), items, err)
	}
}
