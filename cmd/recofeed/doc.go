// Package main provides the entry point for recofeed.
//
// recofeed pages through the feeds of a recommender service and keeps a
// snapshot of each so the next run starts where the last one stopped:
//
//   - Feeds: recommendations, past recommendations, popular pages, rating history
//   - Ratings and categories, reflected into stored snapshots
//   - Interactive browsing
//   - An HTTP endpoint with feed state and Prometheus metrics
//
// Usage:
//
//	recofeed [global flags] command [flags]
//	recofeed --base-url https://rec.example.com feed show --kind popular
//	recofeed -o json snapshot show
//	recofeed browse --kind past
package main
