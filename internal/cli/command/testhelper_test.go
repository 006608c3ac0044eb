package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

// fakeRecommender serves the rest/* endpoints from generated data and
// records every request body.
type fakeRecommender struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string][]map[string]any
	fail   map[string]int

	recommendations int
	past            int
	popular         int
	history         int
}

func newFakeRecommender(t *testing.T) *fakeRecommender {
	t.Helper()
	f := &fakeRecommender{
		bodies:          make(map[string][]map[string]any),
		fail:            make(map[string]int),
		recommendations: 30,
		past:            25,
		popular:         50,
		history:         3,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRecommender) serve(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/rest/")
	var body map[string]any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		json.Unmarshal(data, &body)
	}

	f.mu.Lock()
	f.bodies[endpoint] = append(f.bodies[endpoint], body)
	status, failing := f.fail[endpoint]
	f.mu.Unlock()

	if failing {
		http.Error(w, "upstream broken", status)
		return
	}

	offset, limit := intField(body, "offset"), intField(body, "limit")
	switch endpoint {
	case "recommendations":
		excluded := 0
		if ex, ok := body["exclude_urls"].([]any); ok {
			excluded = len(ex)
		}
		var out []map[string]any
		for i := excluded; i < excluded+limit && i < f.recommendations; i++ {
			out = append(out, map[string]any{
				"destination_url":  fmt.Sprintf("https://rec.test/%d", i),
				"destination_page": map[string]any{"title": fmt.Sprintf("Recommended %d", i), "domain": "rec.test"},
				"weight":           1.0 / float64(i+1),
				"user_count":       i,
				"category":         "ANY",
			})
		}
		writeTestJSON(w, out)
	case "pastRecommendations":
		var out []map[string]any
		for i := offset; i < offset+limit && i < f.past; i++ {
			out = append(out, map[string]any{
				"destination_url":  fmt.Sprintf("https://past.test/%d", i),
				"destination_page": map[string]any{"title": fmt.Sprintf("Past %d", i)},
			})
		}
		writeTestJSON(w, out)
	case "popularPages":
		var out []map[string]any
		for i := offset; i < offset+limit && i < f.popular; i++ {
			out = append(out, map[string]any{
				"url":              fmt.Sprintf("https://pop.test/%d", i),
				"page":             map[string]any{"title": fmt.Sprintf("Popular %d", i), "domain": "pop.test"},
				"positive_ratings": i,
			})
		}
		writeTestJSON(w, out)
	case "ratingHistory":
		var out []map[string]any
		for i := offset; i < offset+limit && i < f.history; i++ {
			out = append(out, map[string]any{
				"url":    fmt.Sprintf("https://hist.test/%d", i),
				"rating": 1,
				"date":   time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC).UnixMilli(),
			})
		}
		writeTestJSON(w, out)
	case "markUnread":
		writeTestJSON(w, map[string]any{"unread_count": 4, "visit_discarded": false})
	case "categories":
		writeTestJSON(w, []map[string]any{{"id": 7, "name": "go"}})
	case "rate", "deleteRating", "setPageCategory":
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeRecommender) calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies[endpoint])
}

func (f *fakeRecommender) lastBody(endpoint string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bodies[endpoint]
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

func (f *fakeRecommender) failWith(endpoint string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[endpoint] = status
}

func intField(body map[string]any, key string) int {
	if v, ok := body[key].(float64); ok {
		return int(v)
	}
	return 0
}

func writeTestJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// testEnv runs the CLI against a fake recommender with snapshots stored in
// a per-test SQLite directory.
type testEnv struct {
	t       *testing.T
	remote  *fakeRecommender
	dataDir string
	stdin   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("RECOFEED_CONFIG", "")
	return &testEnv{
		t:       t,
		remote:  newFakeRecommender(t),
		dataDir: t.TempDir(),
	}
}

// run executes the CLI with the environment's global flags prepended.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	base := []string{"--base-url", e.remote.URL, "--engine", "sqlite", "--data-dir", e.dataDir}
	return runApp(context.Background(), e.stdin, append(base, args...)...)
}

func runApp(ctx context.Context, stdin string, args ...string) (string, string, error) {
	app := App()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(ctx, append([]string{"recofeed"}, args...))
	return stdout.String(), stderr.String(), err
}

// viewJSON is the JSON shape of a printed feed.
type viewJSON struct {
	Kind     string           `json:"kind"`
	Items    []map[string]any `json:"items"`
	HasMore  bool             `json:"has_more"`
	Restored bool             `json:"restored"`
	PageSize int              `json:"page_size"`
	Filters  map[string]any   `json:"filters"`
}

func decodeView(t *testing.T, out string) viewJSON {
	t.Helper()
	var v viewJSON
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}
