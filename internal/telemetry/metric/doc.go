// Package metric holds the Prometheus metrics for recofeed.
//
// A Registry owns its own prometheus.Registry (plus the Go and process
// collectors) and implements the observer interfaces of the loader,
// snapshot store and remote client, so components depend only on their
// own small interface. Handler serves the registry at /metrics.
package metric
