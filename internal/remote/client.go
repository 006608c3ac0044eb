package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/infra/buildinfo"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
)

// Header and cookie names used by the server's XSRF check.
const (
	XSRFHeader = "X-XSRF-TOKEN"
	XSRFCookie = "XSRF-TOKEN"
)

// Endpoint names, relative to <base_url>/rest/.
const (
	EndpointRecommendations     = "recommendations"
	EndpointPastRecommendations = "pastRecommendations"
	EndpointPopularPages        = "popularPages"
	EndpointRatingHistory       = "ratingHistory"
	EndpointRate                = "rate"
	EndpointDeleteRating        = "deleteRating"
	EndpointSetPageCategory     = "setPageCategory"
	EndpointMarkUnread          = "markUnread"
	EndpointCategories          = "categories"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 512

// Config configures the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	XSRFToken string

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int

	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout spent open before probing again.
	Timeout time.Duration
	// MinRequests before FailureRatio is considered.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
}

// DefaultBreakerConfig mirrors the settings used for other upstream APIs.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Metrics receives client events.
type Metrics interface {
	ObserveRequest(endpoint, status string, elapsed time.Duration)
	SetBreakerState(name string, state int)
}

// Client talks to the recommender API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
	metrics Metrics

	mu   sync.RWMutex
	xsrf string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("remote base_url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Default(),
		xsrf:    cfg.XSRFToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "remote")
	c.breaker = c.newBreaker(cfg.Breaker)

	return c, nil
}

func (c *Client) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[[]byte] {
	def := DefaultBreakerConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = def.FailureRatio
	}

	const name = "recommender-api"
	if c.metrics != nil {
		c.metrics.SetBreakerState(name, int(gobreaker.StateClosed))
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		// A 4xx is the caller's problem, not the server's.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			if c.metrics != nil {
				c.metrics.SetBreakerState(name, int(to))
			}
		},
	})
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// XSRFToken returns the token currently sent with each request.
func (c *Client) XSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.xsrf
}

// BreakerState returns the breaker state name ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// RecommendationsQuery selects a page of recommendations. The endpoint has
// no offset: paging is done by excluding URLs already shown.
type RecommendationsQuery struct {
	Filters     domain.Filters
	Limit       int
	ExcludeURLs []string
}

// Recommendations fetches personalized recommendations.
func (c *Client) Recommendations(ctx context.Context, q RecommendationsQuery) ([]domain.Recommendation, error) {
	f := q.Filters
	req := recommendationsRequest{
		TimePeriod:  f.TimePeriod,
		Limit:       q.Limit,
		DecayRate:   f.DecayRate(),
		ExcludeURLs: q.ExcludeURLs,
	}
	if req.ExcludeURLs == nil {
		req.ExcludeURLs = []string{}
	}
	if f.SourceType != domain.SourceAny {
		st := string(f.SourceType)
		req.SourceType = &st
	}
	if f.AnyCategory() {
		req.AnyCategory = true
		includePopular := f.IncludePopular
		req.IncludePopular = &includePopular
	} else {
		req.CategoryID = domain.ServerCategoryID(f.CategoryID)
	}

	var out []wireRecommendation
	if err := c.post(ctx, EndpointRecommendations, req, &out); err != nil {
		return nil, err
	}
	return convert(out, wireRecommendation.toDomain), nil
}

// PastRecommendations fetches recommendations shown before.
func (c *Client) PastRecommendations(ctx context.Context, period domain.TimePeriod, offset, limit int) ([]domain.Recommendation, error) {
	var out []wireRecommendation
	err := c.post(ctx, EndpointPastRecommendations, pastRecommendationsRequest{
		TimePeriod: period,
		Offset:     offset,
		Limit:      limit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return convert(out, wireRecommendation.toDomain), nil
}

// PopularPages fetches the most upvoted pages.
func (c *Client) PopularPages(ctx context.Context, period domain.TimePeriod, personalize bool, offset, limit int) ([]domain.PopularPage, error) {
	var out []wirePopularPage
	err := c.post(ctx, EndpointPopularPages, popularPagesRequest{
		TimePeriod:  period,
		Personalize: personalize,
		Offset:      offset,
		Limit:       limit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return convert(out, wirePopularPage.toDomain), nil
}

// RatingHistory fetches the user's own ratings, newest first.
func (c *Client) RatingHistory(ctx context.Context, categoryID int64, positiveOnly bool, offset, limit int) ([]domain.RatingRecord, error) {
	req := ratingHistoryRequest{
		Offset:       offset,
		Limit:        limit,
		PositiveOnly: positiveOnly,
	}
	if categoryID == domain.AnyCategory.ID {
		req.AnyCategory = true
	} else {
		req.CategoryID = domain.ServerCategoryID(categoryID)
	}

	var out []wireRatingRecord
	if err := c.post(ctx, EndpointRatingHistory, req, &out); err != nil {
		return nil, err
	}
	return convert(out, wireRatingRecord.toDomain), nil
}

// RateQuery records a vote. CategoryID 0 leaves the category unset.
type RateQuery struct {
	URL        string
	Rating     domain.Rating
	Source     string
	CategoryID int64
}

// Rate records a rating for a page.
func (c *Client) Rate(ctx context.Context, q RateQuery) error {
	if q.URL == "" {
		return domain.ErrInvalidArgument.WithDetails("url is required")
	}
	req := rateRequest{URL: q.URL, Rating: q.Rating, Source: q.Source}
	if q.CategoryID != 0 {
		req.CategoryID = domain.ServerCategoryID(q.CategoryID)
	}
	return c.post(ctx, EndpointRate, req, nil)
}

// DeleteRating removes the user's rating for url.
func (c *Client) DeleteRating(ctx context.Context, url string) error {
	if url == "" {
		return domain.ErrInvalidArgument.WithDetails("url is required")
	}
	return c.post(ctx, EndpointDeleteRating, urlRequest{URL: url}, nil)
}

// SetPageCategory moves a rated page into a category.
func (c *Client) SetPageCategory(ctx context.Context, url string, categoryID int64) error {
	if url == "" {
		return domain.ErrInvalidArgument.WithDetails("url is required")
	}
	return c.post(ctx, EndpointSetPageCategory, setPageCategoryRequest{
		URL:        url,
		CategoryID: domain.ServerCategoryID(categoryID),
	}, nil)
}

// MarkUnread marks recommendations from startURL onwards as unread.
func (c *Client) MarkUnread(ctx context.Context, startURL string, period domain.TimePeriod) (MarkUnreadResult, error) {
	var out MarkUnreadResult
	if startURL == "" {
		return out, domain.ErrInvalidArgument.WithDetails("start url is required")
	}
	err := c.post(ctx, EndpointMarkUnread, markUnreadRequest{TimePeriod: period, StartURL: startURL}, &out)
	return out, err
}

// Categories lists the user's categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.post(ctx, EndpointCategories, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Category{}
	}
	return out, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// post sends body to endpoint and decodes the response into out (if non-nil).
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ErrFetchFailed.WithDetails(endpoint).WithCause(err)
	}

	start := time.Now()
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, body)
	})
	elapsed := time.Since(start)

	if err != nil {
		status := "error"
		var se *statusError
		var derr error
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			status = "rejected"
			derr = domain.ErrRemoteUnavailable.WithDetails(endpoint).WithCause(err)
		case errors.As(err, &se):
			status = fmt.Sprintf("%d", se.code)
			derr = domain.ErrRemoteStatus.WithDetails(fmt.Sprintf("%s: %s", endpoint, se.Error())).WithCause(err)
		default:
			derr = domain.ErrFetchFailed.WithDetails(endpoint).WithCause(err)
		}
		c.observe(endpoint, status, elapsed)
		c.logger.WithContext(ctx).Warn("remote call failed",
			"endpoint", endpoint,
			"status", status,
			"elapsed", elapsed,
			"error", err)
		return derr
	}

	c.observe(endpoint, "ok", elapsed)
	c.logger.WithContext(ctx).Debug("remote call",
		"endpoint", endpoint,
		"bytes", len(data),
		"elapsed", elapsed)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.ErrFetchFailed.WithDetails(endpoint + ": decode response").WithCause(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/"+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "recofeed/"+buildinfo.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.XSRFToken(); tok != "" {
		req.Header.Set(XSRFHeader, tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.captureXSRF(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// captureXSRF keeps the token the server rotates through its cookie.
func (c *Client) captureXSRF(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != XSRFCookie || ck.Value == "" {
			continue
		}
		tok := strings.Trim(ck.Value, `"`)
		c.mu.Lock()
		c.xsrf = tok
		c.mu.Unlock()
		return
	}
}

func (c *Client) observe(endpoint, status string, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(endpoint, status, elapsed)
	}
}
