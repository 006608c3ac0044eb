package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestURLs(t *testing.T) {
	recs := []Recommendation{
		{DestinationURL: "https://a.test"},
		{DestinationURL: "https://b.test"},
	}
	if got := URLs(recs); !slices.Equal(got, []string{"https://a.test", "https://b.test"}) {
		t.Errorf("URLs(recommendations) = %v", got)
	}

	pages := []PopularPage{{URL: "https://p.test"}}
	if got := URLs(pages); !slices.Equal(got, []string{"https://p.test"}) {
		t.Errorf("URLs(popular) = %v", got)
	}

	if got := URLs([]RatingRecord{}); len(got) != 0 {
		t.Errorf("URLs(empty) = %v", got)
	}
}

func TestRecommendation_Rated(t *testing.T) {
	r := Recommendation{DestinationURL: "https://a.test"}
	if r.Rated() {
		t.Error("Rated() = true without a rating")
	}
	neutral := Neutral
	r.Rating = &neutral
	if !r.Rated() {
		t.Error("a neutral vote is still a vote")
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in      string
		want    Rating
		wantErr bool
	}{
		{"up", ThumbsUp, false},
		{"+1", ThumbsUp, false},
		{"1", ThumbsUp, false},
		{"Neutral", Neutral, false},
		{"0", Neutral, false},
		{" down ", ThumbsDown, false},
		{"-1", ThumbsDown, false},
		{"meh", 0, true},
		{"2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRating(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseRating(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRating(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRating(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRating_String(t *testing.T) {
	for r, want := range map[Rating]string{ThumbsUp: "up", Neutral: "neutral", ThumbsDown: "down"} {
		if got := r.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(r), got, want)
		}
	}
}

func TestServerCategoryID(t *testing.T) {
	if got := ServerCategoryID(AnyCategory.ID); got != AnyCategoryServerID {
		t.Errorf("ServerCategoryID(any) = %v, want %q", got, AnyCategoryServerID)
	}
	if got := ServerCategoryID(DefaultCategory.ID); got != nil {
		t.Errorf("ServerCategoryID(default) = %v, want nil", got)
	}
	if got := ServerCategoryID(7); got != int64(7) {
		t.Errorf("ServerCategoryID(7) = %v, want 7", got)
	}
}
