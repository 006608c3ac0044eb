// Package logger provides structured logging for recofeed.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: construction, level control, package-level helpers
//   - context.go: carrying a logger and request/feed identifiers in a context
//   - redact.go: masking of XSRF values, cookies and credentials in URLs
//
// Output is JSON by default; "text" (alias "console") selects the slog
// text handler. The level can be changed at runtime with SetLevel, which
// the serve command does when the config file changes.
package logger
