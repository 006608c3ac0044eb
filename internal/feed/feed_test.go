package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/core/loader"
	"github.com/yndnr/recofeed-go/internal/storage/memory"
	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
)

// pageSource serves PopularPage items "u0", "u1", ... and records queries.
type pageSource struct {
	mu      sync.Mutex
	total   int
	err     error
	queries []Query
}

func (s *pageSource) fetch(_ context.Context, q Query) ([]domain.PopularPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.PopularPage
	for i := q.Offset; i < q.Offset+q.Limit && i < s.total; i++ {
		out = append(out, domain.PopularPage{URL: fmt.Sprintf("u%d", i)})
	}
	return out, nil
}

func (s *pageSource) calls() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Kind:     KindPopular,
		PageSize: 10,
		Snapshot: true,
		Filters:  domain.Filters{TimePeriod: domain.PeriodWeek, CategoryID: domain.AnyCategory.ID},
	}
}

func newTestFeed(t *testing.T, cfg Config, src *pageSource, withStore bool) (*Feed[domain.PopularPage], *snapshot.Store[domain.PopularPage]) {
	t.Helper()
	var store *snapshot.Store[domain.PopularPage]
	if withStore {
		store = snapshot.NewStore[domain.PopularPage](memory.New(), cfg.Kind.SnapshotKey(),
			snapshot.WithLogger[domain.PopularPage](logger.Discard()))
	}
	f := New(cfg, src.fetch, store,
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return fixedNow }))
	return f, store
}

func waitReq(t *testing.T, req *loader.Request) loader.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := Wait(ctx, req)
	if outcome == loader.OutcomePending {
		t.Fatalf("request did not complete: %v", err)
	}
	return outcome
}

func TestNew_PanicsOnNilFetcher(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New[domain.PopularPage](testConfig(), nil, nil)
}

func TestFeed_MountWithoutStoreLoads(t *testing.T) {
	src := &pageSource{total: 25}
	f, _ := newTestFeed(t, testConfig(), src, false)

	req := f.Mount(context.Background())
	if req == nil {
		t.Fatal("Mount without store must load")
	}
	if got := waitReq(t, req); got != loader.OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", got)
	}

	v := f.View()
	if len(v.Items) != 10 || !v.HasMore || v.Restored {
		t.Errorf("view = items %d has_more %v restored %v", len(v.Items), v.HasMore, v.Restored)
	}
	if !f.LastUpdated().Equal(fixedNow) {
		t.Errorf("LastUpdated = %v, want %v", f.LastUpdated(), fixedNow)
	}
}

func TestFeed_AcceptCaptures(t *testing.T) {
	src := &pageSource{total: 25}
	cfg := testConfig()
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	waitReq(t, f.Mount(ctx))
	waitReq(t, f.LoadMore(ctx))

	entry, ok, err := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if err != nil || !ok {
		t.Fatalf("TryRestore = %v, %v", ok, err)
	}
	if len(entry.Items) != 20 {
		t.Errorf("captured %d items, want 20", len(entry.Items))
	}
	if entry.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("schema version = %d", entry.SchemaVersion)
	}
	if !entry.CapturedAt.Equal(fixedNow) {
		t.Errorf("captured at = %v", entry.CapturedAt)
	}
}

func TestFeed_MountRestoresWithoutLoading(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 25}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	captured := fixedNow.Add(-time.Hour)
	items := []domain.PopularPage{{URL: "a"}, {URL: "b"}}
	if err := store.Capture(ctx, items, cfg.Filters, captured, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}

	if req := f.Mount(ctx); req != nil {
		t.Fatal("Mount should restore and not load")
	}
	if n := len(src.calls()); n != 0 {
		t.Errorf("fetch called %d times", n)
	}

	v := f.View()
	if !v.Restored || len(v.Items) != 2 || !v.HasMore || v.IsLoading {
		t.Errorf("view = %+v", v)
	}
	if !f.LastUpdated().Equal(captured) {
		t.Errorf("LastUpdated = %v, want %v", f.LastUpdated(), captured)
	}

	// Paging continues after the restored items.
	waitReq(t, f.LoadMore(ctx))
	calls := src.calls()
	if len(calls) != 1 || calls[0].Offset != 2 {
		t.Fatalf("calls = %+v", calls)
	}
	if f.Restored() {
		t.Error("Restored should clear once a page is accepted")
	}
}

func TestFeed_MountMismatchErasesAndLoads(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 3}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	other := cfg.Filters
	other.TimePeriod = domain.PeriodYear
	if err := store.Capture(ctx, []domain.PopularPage{{URL: "old"}}, other, fixedNow, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}

	req := f.Mount(ctx)
	if req == nil {
		t.Fatal("Mount should load on filter mismatch")
	}
	waitReq(t, req)

	if _, ok, _ := store.TryRestore(ctx, other, MinSupportedSchemaVersion); ok {
		t.Error("mismatching snapshot should have been erased")
	}
	items := f.Loader().Items()
	if len(items) != 3 || items[0].URL != "u0" {
		t.Errorf("items = %+v", items)
	}
}

func TestFeed_MountOutdatedSchemaLoads(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 3}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	if err := store.Capture(ctx, []domain.PopularPage{{URL: "old"}}, cfg.Filters, fixedNow, MinSupportedSchemaVersion-1); err != nil {
		t.Fatal(err)
	}
	if req := f.Mount(ctx); req == nil {
		t.Fatal("Mount should load when the snapshot is outdated")
	} else {
		waitReq(t, req)
	}
	if f.Restored() {
		t.Error("outdated snapshot must not be restored")
	}
}

func TestFeed_FailureKeepsSnapshot(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 25}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	waitReq(t, f.Reload(ctx))

	src.mu.Lock()
	src.err = errors.New("boom")
	src.mu.Unlock()

	if got := waitReq(t, f.LoadMore(ctx)); got != loader.OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", got)
	}
	entry, ok, err := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if err != nil || !ok || len(entry.Items) != 10 {
		t.Fatalf("snapshot after failure = %v, %v, %v", entry, ok, err)
	}
}

func TestFeed_MutateMarksDirty(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 5}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	waitReq(t, f.Reload(ctx))

	n, err := f.Mutate(ctx, func(p *domain.PopularPage) bool {
		if p.URL != "u2" {
			return false
		}
		p.PositiveRatings = 7
		return true
	})
	if err != nil || n != 1 {
		t.Fatalf("Mutate = %d, %v", n, err)
	}

	entry, _, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if entry == nil || entry.Items[2].PositiveRatings != 7 {
		t.Fatalf("mutation not captured: %+v", entry)
	}

	// Nothing changed: nothing written.
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.Mutate(ctx, func(*domain.PopularPage) bool { return false }); n != 0 {
		t.Fatalf("Mutate changed %d", n)
	}
	if _, ok, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion); ok {
		t.Error("unchanged Mutate should not capture")
	}

	if err := f.MarkDirty(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion); !ok {
		t.Error("MarkDirty should capture")
	}
}

func TestFeed_ApplySettings(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 0}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	if err := store.Capture(ctx, []domain.PopularPage{{URL: "x"}}, cfg.Filters, fixedNow, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}

	next := cfg.Filters
	next.TimePeriod = domain.PeriodDay
	waitReq(t, f.ApplySettings(ctx, next))

	if f.Filters() != next {
		t.Errorf("filters = %+v", f.Filters())
	}
	calls := src.calls()
	if len(calls) != 1 || calls[0].Filters != next {
		t.Fatalf("calls = %+v", calls)
	}
	if _, ok, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion); ok {
		t.Error("old snapshot should be cleared")
	}
	// The empty first page under the new filters was captured.
	entry, ok, _ := store.TryRestore(ctx, next, MinSupportedSchemaVersion)
	if !ok || len(entry.Items) != 0 {
		t.Errorf("new snapshot = %+v, %v", entry, ok)
	}
}

func TestFeed_ExcludeShown(t *testing.T) {
	cfg := testConfig()
	cfg.ExcludeShown = true
	src := &pageSource{total: 50}
	f, _ := newTestFeed(t, cfg, src, false)
	ctx := context.Background()

	waitReq(t, f.Reload(ctx))
	waitReq(t, f.LoadMore(ctx))

	calls := src.calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[0].Exclude != nil {
		t.Errorf("first page excludes %v", calls[0].Exclude)
	}
	if len(calls[1].Exclude) != 10 || calls[1].Exclude[0] != "u0" || calls[1].Exclude[9] != "u9" {
		t.Errorf("second page excludes %v", calls[1].Exclude)
	}
}

func TestFeed_SupersededAcceptDoesNotCapture(t *testing.T) {
	cfg := testConfig()
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var mu sync.Mutex
	n := 0
	fetch := func(ctx context.Context, q Query) ([]domain.PopularPage, error) {
		mu.Lock()
		n++
		first := n == 1
		mu.Unlock()
		started <- struct{}{}
		if first {
			<-release
			return []domain.PopularPage{{URL: "stale"}}, nil
		}
		return []domain.PopularPage{{URL: "fresh"}}, nil
	}

	store := snapshot.NewStore[domain.PopularPage](memory.New(), "feed/test")
	f := New(cfg, fetch, store, WithLogger(logger.Discard()))
	ctx := context.Background()

	first := f.Reload(ctx)
	<-started
	second := f.Reload(ctx)
	<-started
	waitReq(t, second)
	close(release)

	if got := waitReq(t, first); got != loader.OutcomeStale {
		t.Fatalf("first outcome = %v, want stale", got)
	}
	entry, ok, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if !ok || len(entry.Items) != 1 || entry.Items[0].URL != "fresh" {
		t.Fatalf("snapshot = %+v", entry)
	}
}

func TestFeed_SnapshotView(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 4}
	f, _ := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	if _, ok, err := f.Snapshot(ctx); ok || err != nil {
		t.Fatalf("empty Snapshot = %v, %v", ok, err)
	}
	waitReq(t, f.Reload(ctx))

	sv, ok, err := f.Snapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("Snapshot = %v, %v", ok, err)
	}
	if sv.Key != "feed/popular" || len(sv.Items) != 4 {
		t.Errorf("snapshot view = %+v", sv)
	}

	if err := f.ClearSnapshot(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.Snapshot(ctx); ok {
		t.Error("snapshot should be gone after ClearSnapshot")
	}

	noStore, _ := newTestFeed(t, cfg, src, false)
	if _, _, err := noStore.Snapshot(ctx); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Snapshot without store err = %v", err)
	}
}

func TestFeed_Status(t *testing.T) {
	src := &pageSource{total: 30}
	f, _ := newTestFeed(t, testConfig(), src, false)
	waitReq(t, f.Reload(context.Background()))

	st := f.Status()
	if st.Kind != "popular" || st.Items != 10 || st.PageSize != 10 || !st.HasMore || st.IsLoading {
		t.Errorf("status = %+v", st)
	}
}

func TestFeed_RestoreNeverLoads(t *testing.T) {
	cfg := testConfig()
	src := &pageSource{total: 25}
	f, store := newTestFeed(t, cfg, src, true)
	ctx := context.Background()

	ok, err := f.Restore(ctx)
	if err != nil || ok {
		t.Fatalf("Restore() on empty store = %v, %v", ok, err)
	}
	if len(src.calls()) != 0 {
		t.Fatalf("Restore fetched %d pages", len(src.calls()))
	}

	if err := store.Capture(ctx, []domain.PopularPage{{URL: "a"}, {URL: "b"}}, cfg.Filters, fixedNow, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}
	ok, err = f.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore() = %v, %v", ok, err)
	}
	if v := f.View(); len(v.Items) != 2 || !v.Restored {
		t.Errorf("view = %+v", v)
	}
	if len(src.calls()) != 0 {
		t.Errorf("Restore fetched %d pages", len(src.calls()))
	}
}

func TestFeed_MarkDirtyBeforeMountKeepsSnapshot(t *testing.T) {
	cfg := testConfig()
	f, store := newTestFeed(t, cfg, &pageSource{}, true)
	ctx := context.Background()

	if err := store.Capture(ctx, []domain.PopularPage{{URL: "kept"}}, cfg.Filters, fixedNow, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}
	if err := f.MarkDirty(ctx); err != nil {
		t.Fatal(err)
	}

	entry, ok, _ := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if !ok || len(entry.Items) != 1 || entry.Items[0].URL != "kept" {
		t.Errorf("snapshot overwritten: %+v", entry)
	}
}

func TestFeed_AcceptCapturesWhenLoadMoreSupersedes(t *testing.T) {
	cfg := testConfig()
	release := make(chan struct{})
	fetch := func(_ context.Context, q Query) ([]domain.PopularPage, error) {
		if q.Offset > 0 {
			return nil, errors.New("second page unavailable")
		}
		<-release
		out := make([]domain.PopularPage, cfg.PageSize)
		for i := range out {
			out[i] = domain.PopularPage{URL: fmt.Sprintf("u%d", i)}
		}
		return out, nil
	}

	store := snapshot.NewStore[domain.PopularPage](memory.New(), "feed/test",
		snapshot.WithLogger[domain.PopularPage](logger.Discard()))
	f := New(cfg, fetch, store, WithLogger(logger.Discard()))
	ctx := context.Background()

	first := f.Reload(ctx)

	// Hold the feed lock so the first page is applied by the loader but
	// its capture has to wait behind the LoadMore issued below.
	f.mu.Lock()
	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for f.loader.IsLoading() {
		if time.Now().After(deadline) {
			f.mu.Unlock()
			t.Fatal("first page never applied")
		}
		time.Sleep(time.Millisecond)
	}
	second := f.loader.LoadMore(ctx)
	f.current = second
	f.mu.Unlock()

	if got := waitReq(t, first); got != loader.OutcomeAccepted {
		t.Fatalf("first outcome = %v, want accepted", got)
	}
	if got := waitReq(t, second); got != loader.OutcomeFailed {
		t.Fatalf("second outcome = %v, want failed", got)
	}

	entry, ok, err := store.TryRestore(ctx, cfg.Filters, MinSupportedSchemaVersion)
	if err != nil || !ok {
		t.Fatalf("accepted page not captured: %v, %v", ok, err)
	}
	if len(entry.Items) != cfg.PageSize {
		t.Errorf("snapshot items = %d, want %d", len(entry.Items), cfg.PageSize)
	}
}

func TestFeed_SnapshotDoesNotErase(t *testing.T) {
	cfg := testConfig()
	f, store := newTestFeed(t, cfg, &pageSource{}, true)
	ctx := context.Background()

	other := cfg.Filters
	other.TimePeriod = domain.PeriodYear
	if err := store.Capture(ctx, []domain.PopularPage{{URL: "y"}}, other, fixedNow, CurrentSchemaVersion); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		sv, ok, err := f.Snapshot(ctx)
		if err != nil || !ok {
			t.Fatalf("Snapshot() = %v, %v", ok, err)
		}
		if sv.Current || sv.Filters != other || len(sv.Items) != 1 {
			t.Errorf("snapshot view = %+v", sv)
		}
	}

	req := f.Mount(ctx)
	if req == nil {
		t.Fatal("mismatched snapshot restored")
	}
	waitReq(t, req)
	entry, ok, err := store.Peek(ctx)
	if err != nil || !ok || entry.Filters != cfg.Filters || len(entry.Items) != 0 {
		t.Errorf("entry after mount = %+v, %v, %v", entry, ok, err)
	}
}

func TestFeed_SettingsRoundTrip(t *testing.T) {
	cfg := testConfig()
	kv := memory.New()
	src := &pageSource{total: 5}
	ctx := context.Background()

	newFeed := func() *Feed[domain.PopularPage] {
		store := snapshot.NewStore[domain.PopularPage](kv, cfg.Kind.SnapshotKey(),
			snapshot.WithLogger[domain.PopularPage](logger.Discard()))
		return New(cfg, src.fetch, store, WithLogger(logger.Discard()), WithSettings(NewSettings(kv)))
	}

	first := newFeed()
	if ok, err := first.LoadSettings(ctx); ok || err != nil {
		t.Fatalf("LoadSettings() before any apply = %v, %v", ok, err)
	}
	next := cfg.Filters
	next.TimePeriod = domain.PeriodDay
	waitReq(t, first.ApplySettings(ctx, next))

	second := newFeed()
	if second.Filters() != cfg.Filters {
		t.Fatalf("filters before LoadSettings = %+v", second.Filters())
	}
	ok, err := second.LoadSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSettings() = %v, %v", ok, err)
	}
	if second.Filters() != next {
		t.Errorf("filters = %+v, want %+v", second.Filters(), next)
	}
	if second.Mount(ctx) != nil {
		t.Error("snapshot taken under the saved filters was not restored")
	}
	if n := len(src.calls()); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}
