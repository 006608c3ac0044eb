package feed

import (
	"context"
	"errors"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/core/loader"
	"github.com/yndnr/recofeed-go/internal/remote"
	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// Source is the remote capability the feeds page through.
// *remote.Client implements it.
type Source interface {
	Recommendations(ctx context.Context, q remote.RecommendationsQuery) ([]domain.Recommendation, error)
	PastRecommendations(ctx context.Context, period domain.TimePeriod, offset, limit int) ([]domain.Recommendation, error)
	PopularPages(ctx context.Context, period domain.TimePeriod, personalize bool, offset, limit int) ([]domain.PopularPage, error)
	RatingHistory(ctx context.Context, categoryID int64, positiveOnly bool, offset, limit int) ([]domain.RatingRecord, error)
}

var _ Source = (*remote.Client)(nil)

// SetOptions configures NewSet.
type SetOptions struct {
	// PageSize overrides DefaultPageSize when positive.
	PageSize int
	// Cipher seals snapshots when set.
	Cipher          adaptive.Cipher
	Logger          logger.Logger
	Observer        loader.Observer
	SnapshotMetrics snapshot.Metrics
}

// Set holds the four feeds.
type Set struct {
	Recommendations     *Feed[domain.Recommendation]
	PastRecommendations *Feed[domain.Recommendation]
	Popular             *Feed[domain.PopularPage]
	RatingHistory       *Feed[domain.RatingRecord]
}

// NewSet wires every feed to src. Snapshots and applied filters are kept
// in kv; kv may be nil to keep nothing. Call LoadSettings to pick up the
// filters of a previous process.
func NewSet(src Source, kv storage.KV, opts SetOptions) *Set {
	if src == nil {
		panic("feed: nil source")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	fopts := []Option{WithLogger(log)}
	if opts.Observer != nil {
		fopts = append(fopts, WithObserver(opts.Observer))
	}
	if kv != nil {
		fopts = append(fopts, WithSettings(NewSettings(kv)))
	}

	configure := func(kind Kind) Config {
		cfg := DefaultConfig(kind)
		if opts.PageSize > 0 {
			cfg.PageSize = opts.PageSize
		}
		return cfg
	}

	return &Set{
		Recommendations: New(configure(KindRecommendations),
			RecommendationsFetcher(src),
			newStore[domain.Recommendation](kv, KindRecommendations, opts, log), fopts...),
		PastRecommendations: New(configure(KindPastRecommendations),
			PastRecommendationsFetcher(src),
			newStore[domain.Recommendation](kv, KindPastRecommendations, opts, log), fopts...),
		Popular: New(configure(KindPopular),
			PopularFetcher(src),
			newStore[domain.PopularPage](kv, KindPopular, opts, log), fopts...),
		RatingHistory: New(configure(KindRatingHistory),
			RatingHistoryFetcher(src),
			newStore[domain.RatingRecord](kv, KindRatingHistory, opts, log), fopts...),
	}
}

func newStore[T domain.Item](kv storage.KV, kind Kind, opts SetOptions, log logger.Logger) *snapshot.Store[T] {
	if kv == nil || !DefaultConfig(kind).Snapshot {
		return nil
	}
	sopts := []snapshot.Option[T]{
		snapshot.WithCap[T](SnapshotCap),
		snapshot.WithLogger[T](log),
	}
	if opts.Cipher != nil {
		sopts = append(sopts, snapshot.WithCipher[T](opts.Cipher))
	}
	if opts.SnapshotMetrics != nil {
		sopts = append(sopts, snapshot.WithMetrics[T](opts.SnapshotMetrics))
	}
	return snapshot.NewStore[T](kv, kind.SnapshotKey(), sopts...)
}

// Get returns the feed of kind.
func (s *Set) Get(kind Kind) (Controller, error) {
	switch kind {
	case KindRecommendations:
		return s.Recommendations, nil
	case KindPastRecommendations:
		return s.PastRecommendations, nil
	case KindPopular:
		return s.Popular, nil
	case KindRatingHistory:
		return s.RatingHistory, nil
	}
	return nil, domain.ErrUnknownFeed.WithDetails(string(kind))
}

// All returns every feed in Kinds() order.
func (s *Set) All() []Controller {
	return []Controller{s.Recommendations, s.PastRecommendations, s.Popular, s.RatingHistory}
}

// ApplyRating records rating on every listed item for url and re-captures
// the affected snapshots. A nil rating removes the vote.
func (s *Set) ApplyRating(ctx context.Context, url string, rating *domain.Rating) error {
	setRec := func(r *domain.Recommendation) bool {
		if r.DestinationURL != url {
			return false
		}
		if rating == nil {
			r.Rating = nil
		} else {
			v := *rating
			r.Rating = &v
		}
		return true
	}

	var errs []error
	for _, f := range []*Feed[domain.Recommendation]{s.Recommendations, s.PastRecommendations} {
		if _, err := f.Mutate(ctx, setRec); err != nil {
			errs = append(errs, err)
		}
	}
	if rating != nil {
		if _, err := s.RatingHistory.Mutate(ctx, func(r *domain.RatingRecord) bool {
			if r.URL != url {
				return false
			}
			r.Rating = *rating
			return true
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyCategory moves every listed item for url to category and
// re-captures the affected snapshots.
func (s *Set) ApplyCategory(ctx context.Context, url string, category domain.Category) error {
	setRec := func(r *domain.Recommendation) bool {
		if r.DestinationURL != url {
			return false
		}
		c := category
		r.Category = &c
		return true
	}

	var errs []error
	for _, f := range []*Feed[domain.Recommendation]{s.Recommendations, s.PastRecommendations} {
		if _, err := f.Mutate(ctx, setRec); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := s.RatingHistory.Mutate(ctx, func(r *domain.RatingRecord) bool {
		if r.URL != url {
			return false
		}
		c := category
		r.Category = &c
		return true
	}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadSettings switches every feed to its saved filters.
func (s *Set) LoadSettings(ctx context.Context) error {
	var errs []error
	for _, c := range s.All() {
		if _, err := c.LoadSettings(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Restore restores every feed that has a matching snapshot, without
// loading anything.
func (s *Set) Restore(ctx context.Context) error {
	var errs []error
	for _, c := range s.All() {
		if _, err := c.Restore(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MarkDirty re-captures the snapshot of every feed that keeps one.
func (s *Set) MarkDirty(ctx context.Context) error {
	var errs []error
	for _, c := range s.All() {
		if err := c.MarkDirty(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
