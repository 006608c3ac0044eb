package feed

import (
	"strings"

	"github.com/yndnr/recofeed-go/internal/core/domain"
)

// Kind names a feed.
type Kind string

const (
	KindRecommendations     Kind = "recommendations"
	KindPastRecommendations Kind = "past_recommendations"
	KindPopular             Kind = "popular"
	KindRatingHistory       Kind = "rating_history"
)

// Snapshot schema versions.
const (
	CurrentSchemaVersion      = 1
	MinSupportedSchemaVersion = 1
)

// SnapshotCap is the number of items kept per snapshot.
const SnapshotCap = 200

// DefaultPageSize is the initial page size of every feed.
const DefaultPageSize = 20

// Kinds returns every feed kind in display order.
func Kinds() []Kind {
	return []Kind{KindRecommendations, KindPastRecommendations, KindPopular, KindRatingHistory}
}

// ParseKind accepts the kind names, case-insensitively, and the short
// aliases "recs", "past", "history".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recommendations", "recs":
		return KindRecommendations, nil
	case "past_recommendations", "past":
		return KindPastRecommendations, nil
	case "popular":
		return KindPopular, nil
	case "rating_history", "history":
		return KindRatingHistory, nil
	}
	return "", domain.ErrUnknownFeed.WithDetails(s)
}

// SnapshotPrefix is shared by the KV keys of all feed snapshots.
const SnapshotPrefix = "feed/"

// SnapshotKey is the KV key a feed's snapshot lives under.
func (k Kind) SnapshotKey() string {
	return SnapshotPrefix + string(k)
}

// Config describes how a feed pages.
type Config struct {
	Kind               Kind
	PageSize           int
	FirstPageCanBeLess bool
	DoublePageSize     bool
	// ExcludeShown passes the URLs already listed to the fetcher. Used by
	// sources that page by exclusion rather than by offset.
	ExcludeShown bool
	// Snapshot enables the restoration policy.
	Snapshot bool
	Filters  domain.Filters
}

// DefaultConfig returns the wiring of kind.
func DefaultConfig(kind Kind) Config {
	cfg := Config{Kind: kind, PageSize: DefaultPageSize}

	switch kind {
	case KindRecommendations:
		cfg.FirstPageCanBeLess = true
		cfg.DoublePageSize = true
		cfg.ExcludeShown = true
		cfg.Snapshot = true
		cfg.Filters = domain.Filters{
			TimePeriod:     domain.PeriodMonth,
			CategoryID:     domain.AnyCategory.ID,
			SourceType:     domain.SourceAny,
			IncludePopular: true,
			DecayPercent:   90,
		}
	case KindPastRecommendations:
		cfg.Snapshot = true
		cfg.Filters = domain.Filters{TimePeriod: domain.PeriodMonth}
	case KindPopular:
		cfg.Filters = domain.Filters{
			TimePeriod: domain.PeriodRecent,
			CategoryID: domain.AnyCategory.ID,
		}
	case KindRatingHistory:
		cfg.Filters = domain.Filters{
			CategoryID:   domain.AnyCategory.ID,
			PositiveOnly: true,
		}
	}
	return cfg
}
