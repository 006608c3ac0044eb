package remote

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"

	"github.com/yndnr/recofeed-go/internal/core/domain"
)

type recommendationsRequest struct {
	TimePeriod     domain.TimePeriod `json:"time_period"`
	SourceType     *string           `json:"source_type"`
	Limit          int               `json:"limit"`
	DecayRate      float64           `json:"decay_rate"`
	ExcludeURLs    []string          `json:"exclude_urls"`
	AnyCategory    bool              `json:"any_category,omitempty"`
	IncludePopular *bool             `json:"include_popular,omitempty"`
	CategoryID     any               `json:"category_id,omitempty"`
}

type pastRecommendationsRequest struct {
	TimePeriod domain.TimePeriod `json:"time_period"`
	Offset     int               `json:"offset"`
	Limit      int               `json:"limit"`
}

type popularPagesRequest struct {
	TimePeriod  domain.TimePeriod `json:"time_period"`
	Personalize bool              `json:"personalize"`
	Offset      int               `json:"offset"`
	Limit       int               `json:"limit"`
}

type ratingHistoryRequest struct {
	Offset       int  `json:"offset"`
	Limit        int  `json:"limit"`
	PositiveOnly bool `json:"positive_only"`
	AnyCategory  bool `json:"any_category,omitempty"`
	CategoryID   any  `json:"category_id,omitempty"`
}

type rateRequest struct {
	URL        string        `json:"url"`
	Rating     domain.Rating `json:"rating"`
	Source     string        `json:"source"`
	CategoryID any           `json:"category_id,omitempty"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type setPageCategoryRequest struct {
	URL        string `json:"url"`
	CategoryID any    `json:"category_id"`
}

type markUnreadRequest struct {
	TimePeriod domain.TimePeriod `json:"time_period"`
	StartURL   string            `json:"start_url"`
}

// MarkUnreadResult is the server's answer to MarkUnread.
type MarkUnreadResult struct {
	UnreadCount    int  `json:"unread_count"`
	VisitDiscarded bool `json:"visit_discarded"`
}

// wireCategory accepts the non-null spellings the server uses for a
// category: "ANY", a bare id, or an {id, name} object. A null or missing
// category decodes as a nil *wireCategory.
type wireCategory domain.Category

func (w *wireCategory) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*w = wireCategory(domain.DefaultCategory)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == domain.AnyCategoryServerID {
			*w = wireCategory(domain.AnyCategory)
		} else {
			*w = wireCategory{Name: s}
		}
	case len(data) > 0 && data[0] == '{':
		var c domain.Category
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*w = wireCategory(c)
	default:
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*w = wireCategory{ID: id}
	}
	return nil
}

// resolveCategory prefers category over sourceCategory; an item with
// neither is in the default category.
func resolveCategory(category, sourceCategory *wireCategory) *domain.Category {
	c := domain.DefaultCategory
	switch {
	case category != nil:
		c = domain.Category(*category)
	case sourceCategory != nil:
		c = domain.Category(*sourceCategory)
	}
	return &c
}

type wireSourcePage struct {
	URL       string       `json:"url"`
	UserCount int          `json:"user_count"`
	Page      *domain.Page `json:"page"`
}

type wireRecommendation struct {
	DestinationURL  string           `json:"destination_url"`
	DestinationPage *domain.Page     `json:"destination_page"`
	Category        *wireCategory    `json:"category"`
	SourceCategory  *wireCategory    `json:"source_category"`
	Weight          float64          `json:"weight"`
	UserCount       int              `json:"user_count"`
	SourceCount     int              `json:"source_count"`
	FeedCount       int              `json:"feed_count"`
	TopFeedURLs     []string         `json:"top_feed_urls"`
	TopSources      []wireSourcePage `json:"top_sources"`
	Rating          *domain.Rating   `json:"rating"`
}

func (w wireRecommendation) toDomain() domain.Recommendation {
	r := domain.Recommendation{
		DestinationURL: w.DestinationURL,
		Page:           w.DestinationPage,
		Category:       resolveCategory(w.Category, w.SourceCategory),
		Weight:         w.Weight,
		UserCount:      w.UserCount,
		SourceCount:    w.SourceCount,
		FeedCount:      w.FeedCount,
		TopFeedURLs:    w.TopFeedURLs,
		Rating:         w.Rating,
	}
	for _, s := range w.TopSources {
		r.TopSources = append(r.TopSources, domain.SourcePage(s))
	}
	return r
}

type wirePopularPage struct {
	URL             string       `json:"url"`
	Page            *domain.Page `json:"page"`
	PositiveRatings int          `json:"positive_ratings"`
	NegativeRatings int          `json:"negative_ratings"`
	FeedCount       int          `json:"feed_count"`
	TopFeedURLs     []string     `json:"top_feed_urls"`
}

func (w wirePopularPage) toDomain() domain.PopularPage {
	return domain.PopularPage(w)
}

type wireRatingRecord struct {
	URL            string        `json:"url"`
	Page           *domain.Page  `json:"page"`
	Rating         domain.Rating `json:"rating"`
	Category       *wireCategory `json:"category"`
	SourceCategory *wireCategory `json:"source_category"`
	// Date is milliseconds since the Unix epoch.
	Date int64 `json:"date"`
}

func (w wireRatingRecord) toDomain() domain.RatingRecord {
	return domain.RatingRecord{
		URL:      w.URL,
		Page:     w.Page,
		Rating:   w.Rating,
		Category: resolveCategory(w.Category, w.SourceCategory),
		Date:     time.UnixMilli(w.Date).UTC(),
	}
}

func convert[W any, T any](in []W, fn func(W) T) []T {
	out := make([]T, 0, len(in))
	for _, w := range in {
		out = append(out, fn(w))
	}
	return out
}
