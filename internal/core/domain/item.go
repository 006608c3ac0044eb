package domain

import (
	"fmt"
	"strings"
	"time"
)

// Item is anything a feed can list. ItemURL is the stable identity callers
// use to build exclusion lists.
type Item interface {
	ItemURL() string
}

// Page holds the display fields of a web page shared by every item kind.
type Page struct {
	URL                  string `json:"url"`
	CanonicalURL         string `json:"canonical_url,omitempty"`
	Title                string `json:"title,omitempty"`
	Description          string `json:"description,omitempty"`
	Domain               string `json:"domain,omitempty"`
	FeedURL              string `json:"feed_url,omitempty"`
	FeedTitle            string `json:"feed_title,omitempty"`
	IsFeed               bool   `json:"is_feed,omitempty"`
	EstimatedReadingTime int    `json:"estimated_reading_time,omitempty"`
}

// SourcePage is one of the pages that led to a recommendation.
type SourcePage struct {
	URL       string `json:"url"`
	UserCount int    `json:"user_count"`
	Page      *Page  `json:"page,omitempty"`
}

// Recommendation is an entry of the recommendations and past
// recommendations feeds.
type Recommendation struct {
	DestinationURL string       `json:"destination_url"`
	Page           *Page        `json:"page,omitempty"`
	Category       *Category    `json:"category,omitempty"`
	Weight         float64      `json:"weight"`
	UserCount      int          `json:"user_count"`
	SourceCount    int          `json:"source_count"`
	FeedCount      int          `json:"feed_count"`
	TopFeedURLs    []string     `json:"top_feed_urls,omitempty"`
	TopSources     []SourcePage `json:"top_sources,omitempty"`
	Rating         *Rating      `json:"rating,omitempty"`
}

// ItemURL implements Item.
func (r Recommendation) ItemURL() string { return r.DestinationURL }

// Rated reports whether the user already voted on the recommendation.
func (r Recommendation) Rated() bool { return r.Rating != nil }

// PopularPage is an entry of the popular pages feed.
type PopularPage struct {
	URL             string   `json:"url"`
	Page            *Page    `json:"page,omitempty"`
	PositiveRatings int      `json:"positive_ratings"`
	NegativeRatings int      `json:"negative_ratings"`
	FeedCount       int      `json:"feed_count"`
	TopFeedURLs     []string `json:"top_feed_urls,omitempty"`
}

// ItemURL implements Item.
func (p PopularPage) ItemURL() string { return p.URL }

// RatingRecord is an entry of the rating history feed.
type RatingRecord struct {
	URL      string    `json:"url"`
	Page     *Page     `json:"page,omitempty"`
	Rating   Rating    `json:"rating"`
	Category *Category `json:"category,omitempty"`
	Date     time.Time `json:"date"`
}

// ItemURL implements Item.
func (r RatingRecord) ItemURL() string { return r.URL }

// URLs returns the identities of items in order.
func URLs[T Item](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ItemURL()
	}
	return out
}

// Rating is a user's vote on a page.
type Rating int

const (
	ThumbsDown Rating = -1
	Neutral    Rating = 0
	ThumbsUp   Rating = 1
)

// ParseRating accepts "up", "neutral", "down" or the numeric values.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "1", "+1":
		return ThumbsUp, nil
	case "neutral", "0":
		return Neutral, nil
	case "down", "-1":
		return ThumbsDown, nil
	}
	return 0, ErrInvalidArgument.WithDetails(fmt.Sprintf("rating %q", s))
}

// String returns the word form of the rating.
func (r Rating) String() string {
	switch r {
	case ThumbsUp:
		return "up"
	case ThumbsDown:
		return "down"
	default:
		return "neutral"
	}
}

// Category is a user-defined collection of pages.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Client-side category sentinels.
var (
	AnyCategory     = Category{ID: -1, Name: "any"}
	DefaultCategory = Category{ID: 1, Name: "default"}
)

// AnyCategoryServerID is how the server spells AnyCategory.
const AnyCategoryServerID = "ANY"

// ServerCategoryID converts a client category id into the value the server
// expects: AnyCategory becomes "ANY", DefaultCategory becomes nil.
func ServerCategoryID(id int64) any {
	switch id {
	case AnyCategory.ID:
		return AnyCategoryServerID
	case DefaultCategory.ID:
		return nil
	}
	return id
}
