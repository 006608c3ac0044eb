// Package output renders command results for the recofeed CLI.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: reflective table rendering with wide mode
//   - items.go: tables for feed items and feed views
//   - json.go, yaml.go: machine-readable output
//   - spinner.go, progress.go: feedback on stderr while pages load
package output
