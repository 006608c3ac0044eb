// Package domain defines the core domain models for recofeed.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Item: the identity contract every feed entry satisfies
//   - Recommendation, PopularPage, RatingRecord: per-feed item records
//   - Filters: the parameters a feed was computed under
//   - Errors: domain-specific error definitions
package domain
