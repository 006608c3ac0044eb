package domain

import (
	"fmt"
	"strings"
)

// TimePeriod is the window a feed is computed over.
type TimePeriod string

const (
	PeriodLastVisitRestricted TimePeriod = "LAST_VISIT_RESTRICTED"
	PeriodLastVisit           TimePeriod = "LAST_VISIT"
	PeriodRecent              TimePeriod = "RECENT"
	PeriodHour                TimePeriod = "HOUR"
	PeriodDay                 TimePeriod = "DAY"
	PeriodWeek                TimePeriod = "WEEK"
	PeriodMonth               TimePeriod = "MONTH"
	PeriodYear                TimePeriod = "YEAR"
	PeriodAll                 TimePeriod = "ALL"
)

var timePeriods = []TimePeriod{
	PeriodLastVisitRestricted, PeriodLastVisit, PeriodRecent, PeriodHour,
	PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll,
}

// ParseTimePeriod is case-insensitive.
func ParseTimePeriod(s string) (TimePeriod, error) {
	up := TimePeriod(strings.ToUpper(strings.TrimSpace(s)))
	for _, p := range timePeriods {
		if p == up {
			return p, nil
		}
	}
	return "", ErrInvalidArgument.WithDetails(fmt.Sprintf("time period %q", s))
}

// SourceType restricts recommendations to pages rated by users or by feeds.
type SourceType string

const (
	SourceAny  SourceType = ""
	SourceUser SourceType = "user"
	SourceFeed SourceType = "feed"
)

// ParseSourceType accepts "any", "user" and "feed".
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return SourceAny, nil
	case "user":
		return SourceUser, nil
	case "feed":
		return SourceFeed, nil
	}
	return "", ErrInvalidArgument.WithDetails(fmt.Sprintf("source type %q", s))
}

// Filters are the parameters a feed page was computed under. Not every feed
// reads every field; unused fields stay at their zero value and still take
// part in equality.
type Filters struct {
	TimePeriod     TimePeriod `json:"time_period"`
	CategoryID     int64      `json:"category_id"`
	SourceType     SourceType `json:"source_type,omitempty"`
	IncludePopular bool       `json:"include_popular,omitempty"`
	DecayPercent   int        `json:"decay_percent,omitempty"`
	PositiveOnly   bool       `json:"positive_only,omitempty"`
	Personalize    bool       `json:"personalize,omitempty"`
}

// Equal compares field for field.
func (f Filters) Equal(o Filters) bool {
	return f == o
}

// DecayRate is DecayPercent as the fraction the server expects.
func (f Filters) DecayRate() float64 {
	return float64(f.DecayPercent) / 100
}

// AnyCategory reports whether the filters select every category.
func (f Filters) AnyCategory() bool {
	return f.CategoryID == AnyCategory.ID
}
