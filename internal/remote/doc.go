// Package remote is the HTTP client for the recommender's JSON API.
//
// Every endpoint is a POST to <base_url>/rest/<name> with a JSON body.
// The client:
//
//   - sends the configured XSRF value in X-XSRF-TOKEN and refreshes it
//     from the XSRF-TOKEN cookie the server returns
//   - waits on a token-bucket limiter before each call
//   - runs each call through a circuit breaker that opens on repeated
//     transport or 5xx failures
//   - converts the server's category sentinels ("ANY", null) to
//     domain.AnyCategory and domain.DefaultCategory
package remote
