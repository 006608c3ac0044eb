package output

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/yndnr/recofeed-go/internal/core/domain"
)

const titleWidth = 60

// ItemsTable lays out feed items. The columns follow the type of the first
// item; items of another type are skipped.
func ItemsTable(items []any, wide bool) *Table {
	t := &Table{}
	if len(items) == 0 {
		return t
	}

	switch items[0].(type) {
	case domain.Recommendation:
		t.SetHeaders("#", "TITLE", "DOMAIN", "USERS", "RATING")
		if wide {
			t.Headers = append(t.Headers, "WEIGHT", "CATEGORY", "URL")
		}
		for i, it := range items {
			r, ok := it.(domain.Recommendation)
			if !ok {
				continue
			}
			row := []string{strconv.Itoa(i + 1), title(r.Page, r.DestinationURL, wide), pageDomain(r.Page), strconv.Itoa(r.UserCount), ratingCell(r.Rating)}
			if wide {
				row = append(row, fmt.Sprintf("%.3f", r.Weight), categoryCell(r.Category), r.DestinationURL)
			}
			t.AddRow(row...)
		}
	case domain.PopularPage:
		t.SetHeaders("#", "TITLE", "DOMAIN", "UP", "DOWN")
		if wide {
			t.Headers = append(t.Headers, "FEEDS", "URL")
		}
		for i, it := range items {
			p, ok := it.(domain.PopularPage)
			if !ok {
				continue
			}
			row := []string{strconv.Itoa(i + 1), title(p.Page, p.URL, wide), pageDomain(p.Page), strconv.Itoa(p.PositiveRatings), strconv.Itoa(p.NegativeRatings)}
			if wide {
				row = append(row, strconv.Itoa(p.FeedCount), p.URL)
			}
			t.AddRow(row...)
		}
	case domain.RatingRecord:
		t.SetHeaders("#", "TITLE", "RATING", "DATE")
		if wide {
			t.Headers = append(t.Headers, "CATEGORY", "URL")
		}
		for i, it := range items {
			r, ok := it.(domain.RatingRecord)
			if !ok {
				continue
			}
			rating := r.Rating
			row := []string{strconv.Itoa(i + 1), title(r.Page, r.URL, wide), ratingCell(&rating), dateCell(r)}
			if wide {
				row = append(row, categoryCell(r.Category), r.URL)
			}
			t.AddRow(row...)
		}
	default:
		t.SetHeaders("#", "VALUE")
		for i, it := range items {
			t.AddRow(strconv.Itoa(i+1), fmt.Sprintf("%v", it))
		}
	}
	return t
}

func title(p *domain.Page, url string, wide bool) string {
	s := url
	if p != nil && p.Title != "" {
		s = p.Title
	}
	if !wide && utf8.RuneCountInString(s) > titleWidth {
		r := []rune(s)
		s = string(r[:titleWidth-3]) + "..."
	}
	return s
}

func pageDomain(p *domain.Page) string {
	if p == nil || p.Domain == "" {
		return "-"
	}
	return p.Domain
}

func ratingCell(r *domain.Rating) string {
	if r == nil {
		return "-"
	}
	switch *r {
	case domain.ThumbsUp:
		return "+1"
	case domain.ThumbsDown:
		return "-1"
	}
	return "0"
}

func categoryCell(c *domain.Category) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func dateCell(r domain.RatingRecord) string {
	if r.Date.IsZero() {
		return "-"
	}
	return r.Date.Format("2006-01-02 15:04")
}
