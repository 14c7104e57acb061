package crawler

import (
	"context"
)

// Crawler is one source's complete run: listing, enrichment and output
type Crawler interface {
	// Run appends the source's output rows to buf and returns it
	Run(ctx context.Context, buf []*Record) ([]*Record, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the provider name for the crawler
	GetProvider() string

	// OutputPath returns the file the run writes
	OutputPath() string
}

// Cursor is the position of the next page request
type Cursor struct {
	Page   int // 1-based page number
	Offset int // item offset
	Index  int // 0-based count of pages already requested
}

// PageFunc fetches the page at cur. An empty result ends pagination.
type PageFunc[T any] func(ctx context.Context, cur Cursor) ([]T, error)

// Normalizer maps one raw listing item to a ListingRecord. It must not fail:
// absent values become nil or empty.
type Normalizer[T any] func(item T) *Record

// Enricher fetches a record's secondary resource and returns the merged
// record. An error degrades the record to an ErrorMarker.
type Enricher interface {
	Enrich(ctx context.Context, rec *Record) (*Record, error)
}

// EnricherFunc adapts a function to Enricher
type EnricherFunc func(ctx context.Context, rec *Record) (*Record, error)

// Enrich calls f
func (f EnricherFunc) Enrich(ctx context.Context, rec *Record) (*Record, error) {
	return f(ctx, rec)
}

// Screener is implemented by enrichers that can reject a record before any
// request is made. Rejected records become ErrorMarkers without pacing.
type Screener interface {
	Screen(rec *Record) error
}
