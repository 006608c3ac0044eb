package logger

import (
	"log/slog"
	"strings"
	"testing"
)

func TestRedact_SensitiveKeys(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.Info("request sent",
		"xsrf_token", "c2VjcmV0LXhzcmY=",
		"Cookie", "session=abc",
		"encryption_passphrase", "hunter22",
		"empty_token", "",
		"feed", "popular")

	entry := decodeLine(t, buf)
	for _, key := range []string{"xsrf_token", "Cookie", "encryption_passphrase"} {
		if entry[key] != redactedValue {
			t.Errorf("%s = %v, want redacted", key, entry[key])
		}
	}
	if entry["empty_token"] != "" {
		t.Errorf("empty value redacted: %v", entry["empty_token"])
	}
	if entry["feed"] != "popular" {
		t.Errorf("feed = %v", entry["feed"])
	}
}

func TestRedact_URLValues(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.Info("fetching", "url", "https://example.com/feed.xml?key=abc123&page=2")

	got, _ := decodeLine(t, buf)["url"].(string)
	if strings.Contains(got, "abc123") {
		t.Errorf("credential leaked: %s", got)
	}
	if !strings.Contains(got, "page=2") {
		t.Errorf("non-sensitive parameter dropped: %s", got)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		leak      string
		unchanged bool
	}{
		{"plain url", "https://example.com/a/b?page=1", "", true},
		{"token param", "https://example.com/rss?token=s3cr3t", "s3cr3t", false},
		{"user info", "https://alice:pw@example.com/rss", "pw", false},
		{"not a url", "just text", "", true},
		{"relative", "/rest/recommendations", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactURL(tt.in)
			if tt.unchanged && got != tt.in {
				t.Errorf("RedactURL(%q) = %q, want unchanged", tt.in, got)
			}
			if tt.leak != "" && strings.Contains(got, tt.leak) {
				t.Errorf("RedactURL(%q) = %q leaks %q", tt.in, got, tt.leak)
			}
		})
	}
}

func TestRedact_Groups(t *testing.T) {
	a := slog.Group("remote", slog.String("xsrf", "v"), slog.String("base_url", "http://localhost"))
	out := redactSensitive(a)

	attrs := out.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("nested xsrf = %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "http://localhost" {
		t.Errorf("nested base_url = %q", attrs[1].Value.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := map[string]bool{
		"xsrf_token":    true,
		"X-XSRF-TOKEN":  true,
		"Authorization": true,
		"feed":          false,
		"offset":        false,
	}
	for key, want := range tests {
		if got := IsSensitiveKey(key); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", key, got, want)
		}
	}
}
