package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"page accepted"`},
		{"", `"msg":"page accepted"`},
		{"text", `msg="page accepted"`},
		{"console", `msg="page accepted"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			l, buf := newBufferLogger(t, "info", tt.format)
			l.Info("page accepted", "feed", "popular")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t, "debug", "json")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message")
			if got := decodeLine(t, buf)["level"]; got != tt.level {
				t.Errorf("level = %v, want %s", got, tt.level)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.With("feed", "recommendations").Info("mounted")

	if got := decodeLine(t, buf)["feed"]; got != "recommendations" {
		t.Errorf("feed = %v, want recommendations", got)
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "error", "json")
	defer SetLevel("info")

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Error("info logged at error level")
	}

	SetLevel("debug")
	l.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug not logged after SetLevel(debug)")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{"warning", "warn"},
		{"error", "error"},
		{"bogus", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if got := GetLevel(); got != tt.want {
				t.Errorf("GetLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetDefault_AlsoSetsSlogDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	l, buf := newBufferLogger(t, "info", "json")
	SetDefault(l)

	Info("through package helper")
	if !strings.Contains(buf.String(), "through package helper") {
		t.Error("package-level Info did not reach the new default")
	}

	buf.Reset()
	l.Slog().Info("through slog")
	if !strings.Contains(buf.String(), "through slog") {
		t.Error("Slog() is not backed by the same handler")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing to see")
	if l.Slog() == nil {
		t.Error("Discard().Slog() = nil")
	}
}
