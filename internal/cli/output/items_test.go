package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/recofeed-go/internal/core/domain"
)

func TestItemsTable(t *testing.T) {
	up := domain.ThumbsUp
	long := strings.Repeat("x", 80)

	tests := []struct {
		name    string
		items   []any
		wide    bool
		headers []string
		want    []string
		notWant []string
	}{
		{
			name:    "empty",
			items:   nil,
			headers: nil,
		},
		{
			name: "recommendations",
			items: []any{
				domain.Recommendation{DestinationURL: "https://a.test/1", Page: &domain.Page{Title: "First", Domain: "a.test"}, UserCount: 3, Rating: &up},
				domain.Recommendation{DestinationURL: "https://b.test/2", UserCount: 1},
			},
			headers: []string{"#", "TITLE", "DOMAIN", "USERS", "RATING"},
			want:    []string{"First", "a.test", "+1", "https://b.test/2"},
		},
		{
			name: "recommendations wide",
			items: []any{
				domain.Recommendation{DestinationURL: "https://a.test/1", Weight: 0.5, Category: &domain.Category{ID: 4, Name: "go"}},
			},
			wide:    true,
			headers: []string{"#", "TITLE", "DOMAIN", "USERS", "RATING", "WEIGHT", "CATEGORY", "URL"},
			want:    []string{"0.500", "go"},
		},
		{
			name: "popular",
			items: []any{
				domain.PopularPage{URL: "https://p.test", PositiveRatings: 7, NegativeRatings: 2},
			},
			headers: []string{"#", "TITLE", "DOMAIN", "UP", "DOWN"},
			want:    []string{"7", "2"},
		},
		{
			name: "rating history",
			items: []any{
				domain.RatingRecord{URL: "https://h.test", Rating: domain.ThumbsDown, Date: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
			},
			headers: []string{"#", "TITLE", "RATING", "DATE"},
			want:    []string{"-1", "2024-05-01 10:30"},
		},
		{
			name: "long title truncated",
			items: []any{
				domain.PopularPage{URL: "https://p.test", Page: &domain.Page{Title: long}},
			},
			headers: []string{"#", "TITLE", "DOMAIN", "UP", "DOWN"},
			want:    []string{"..."},
			notWant: []string{long},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := ItemsTable(tt.items, tt.wide)
			if strings.Join(table.Headers, ",") != strings.Join(tt.headers, ",") {
				t.Errorf("headers = %v, want %v", table.Headers, tt.headers)
			}
			if len(table.Rows) != len(tt.items) {
				t.Errorf("rows = %d, want %d", len(table.Rows), len(tt.items))
			}

			var buf bytes.Buffer
			if err := table.Render(&buf); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output missing %q:\n%s", s, buf.String())
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(buf.String(), s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}

func TestItemsTable_SkipsMixedTypes(t *testing.T) {
	table := ItemsTable([]any{
		domain.PopularPage{URL: "https://p.test"},
		domain.RatingRecord{URL: "https://h.test"},
	}, false)
	if len(table.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(table.Rows))
	}
}
