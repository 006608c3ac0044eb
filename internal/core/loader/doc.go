// Package loader provides the incremental list loader shared by every feed.
//
// A Loader owns one feed's item list. Load starts a fresh fetch from offset
// zero; LoadMore appends the next page. Every call mints a new request token
// and supersedes whatever was in flight: a response is applied only if its
// token is still the current one when it arrives, so a slow old request can
// never overwrite the result of a newer one.
//
// Superseded fetches are not aborted. Their results are dropped when they
// complete.
//
// Page size adapts when doubling is enabled: each LoadMore requests
// max(pageSize*2, 100) items.
package loader
