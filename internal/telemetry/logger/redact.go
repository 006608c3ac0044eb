package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Key substrings that mark an attribute as sensitive. Matching is
// case-insensitive.
var sensitiveKeyPatterns = []string{
	"xsrf",
	"csrf",
	"cookie",
	"passphrase",
	"password",
	"secret",
	"token",
	"authorization",
}

// Query parameters that commonly carry credentials in private feed URLs.
var sensitiveQueryParams = []string{
	"key",
	"apikey",
	"api_key",
	"token",
	"access_token",
	"auth",
	"sig",
	"signature",
}

const redactedValue = "***REDACTED***"

// redactSensitive is the slog ReplaceAttr hook.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if looksLikeURL(v) {
			return slog.String(a.Key, RedactURL(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// IsSensitiveKey reports whether an attribute key suggests secret content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// RedactURL masks user info and credential-like query parameters.
// Strings that do not parse as absolute URLs are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	changed := false
	if u.User != nil {
		u.User = url.User(redactedValue)
		changed = true
	}

	q := u.Query()
	for name := range q {
		if isSensitiveParam(name) {
			q.Set(name, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isSensitiveParam(name string) bool {
	n := strings.ToLower(name)
	for _, p := range sensitiveQueryParams {
		if n == p {
			return true
		}
	}
	return false
}

func looksLikeURL(v string) bool {
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")
}
