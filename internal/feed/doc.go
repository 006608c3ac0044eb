// Package feed binds a paged loader to a snapshot store for one feed.
//
// A Feed owns the filters its pages are computed under. Mount shows the
// stored snapshot when it was taken under the same filters, otherwise it
// loads the first page. Every accepted page, and every in-place mutation
// reported through MarkDirty, re-captures the snapshot. ApplySettings
// drops the snapshot before reloading under new filters, and saves those
// filters through Settings so the next process mounts under them.
//
// A Set wires the four feeds of the product to a remote source and a KV
// backend and exposes them by Kind through the non-generic Controller
// interface.
package feed
