package feed

import (
	"context"
	"time"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/core/loader"
	"github.com/yndnr/recofeed-go/internal/telemetry/metric"
)

// View is a type-erased copy of a feed's state, ready for output.
type View struct {
	Kind        Kind           `json:"kind" yaml:"kind"`
	Items       []any          `json:"items" yaml:"items"`
	HasMore     bool           `json:"has_more" yaml:"has_more"`
	IsLoading   bool           `json:"is_loading" yaml:"is_loading"`
	PageSize    int            `json:"page_size" yaml:"page_size"`
	Restored    bool           `json:"restored" yaml:"restored"`
	LastUpdated time.Time      `json:"last_updated" yaml:"last_updated"`
	Filters     domain.Filters `json:"filters" yaml:"filters"`
}

// SnapshotView describes a stored snapshot.
type SnapshotView struct {
	Kind          Kind           `json:"kind" yaml:"kind"`
	Key           string         `json:"key" yaml:"key"`
	Items         []any          `json:"items" yaml:"items"`
	Filters       domain.Filters `json:"filters" yaml:"filters"`
	CapturedAt    time.Time      `json:"captured_at" yaml:"captured_at"`
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	// Current is false when Mount would discard the entry.
	Current bool `json:"current" yaml:"current"`
}

// Controller is the non-generic surface of a Feed.
type Controller interface {
	Kind() Kind
	Filters() domain.Filters
	LoadSettings(ctx context.Context) (bool, error)
	Mount(ctx context.Context) *loader.Request
	Restore(ctx context.Context) (bool, error)
	Reload(ctx context.Context) *loader.Request
	LoadMore(ctx context.Context) *loader.Request
	MarkDirty(ctx context.Context) error
	ApplySettings(ctx context.Context, filters domain.Filters) *loader.Request
	ClearSnapshot(ctx context.Context) error
	Snapshot(ctx context.Context) (*SnapshotView, bool, error)
	View() View
	Status() metric.FeedStatus
}

var (
	_ Controller        = (*Feed[domain.Recommendation])(nil)
	_ metric.FeedSource = (*Feed[domain.PopularPage])(nil)
)

// Wait blocks until req completes. A nil req, as returned by a restoring
// Mount, completes immediately.
func Wait(ctx context.Context, req *loader.Request) (loader.Outcome, error) {
	if req == nil {
		return loader.OutcomeAccepted, nil
	}
	return req.Wait(ctx)
}
