package feed

import (
	"context"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/remote"
)

// RecommendationsFetcher pages by exclusion: the endpoint takes no offset.
func RecommendationsFetcher(src Source) Fetcher[domain.Recommendation] {
	return func(ctx context.Context, q Query) ([]domain.Recommendation, error) {
		return src.Recommendations(ctx, remote.RecommendationsQuery{
			Filters:     q.Filters,
			Limit:       q.Limit,
			ExcludeURLs: q.Exclude,
		})
	}
}

// PastRecommendationsFetcher pages past recommendations by offset.
func PastRecommendationsFetcher(src Source) Fetcher[domain.Recommendation] {
	return func(ctx context.Context, q Query) ([]domain.Recommendation, error) {
		return src.PastRecommendations(ctx, q.Filters.TimePeriod, q.Offset, q.Limit)
	}
}

// PopularFetcher pages popular pages by offset.
func PopularFetcher(src Source) Fetcher[domain.PopularPage] {
	return func(ctx context.Context, q Query) ([]domain.PopularPage, error) {
		return src.PopularPages(ctx, q.Filters.TimePeriod, q.Filters.Personalize, q.Offset, q.Limit)
	}
}

// RatingHistoryFetcher pages the rating history by offset.
func RatingHistoryFetcher(src Source) Fetcher[domain.RatingRecord] {
	return func(ctx context.Context, q Query) ([]domain.RatingRecord, error) {
		return src.RatingHistory(ctx, q.Filters.CategoryID, q.Filters.PositiveOnly, q.Offset, q.Limit)
	}
}
