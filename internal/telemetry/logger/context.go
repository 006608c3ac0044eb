package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "recofeed.logger"
	requestIDKey contextKey = "recofeed.request_id"
	feedKey      contextKey = "recofeed.feed"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFeed records which feed the work in ctx belongs to.
func WithFeed(ctx context.Context, feed string) context.Context {
	return context.WithValue(ctx, feedKey, feed)
}

// FeedFromContext returns the feed recorded by WithFeed.
func FeedFromContext(ctx context.Context) string {
	if f, ok := ctx.Value(feedKey).(string); ok {
		return f
	}
	return ""
}

// L is FromContext enriched with the request ID and feed found in ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if feed := FeedFromContext(ctx); feed != "" {
		l = l.With("feed", feed)
	}

	return l
}
