package domain

import "context"

// FetchOptions control how a single page fetch behaves.
type FetchOptions struct {
	// RenderScroll scrolls the page after load so lazily rendered tiles
	// are present in the returned markup.
	RenderScroll bool
	// FreshIdentity clears cookies and draws a new browser identity
	// before navigating.
	FreshIdentity bool
}

// PageFetcher defines the interface for retrieving rendered page markup
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (string, error)
	Restart(ctx context.Context) error
	Close() error
}

// SourceExtractor defines the interface for the retailer whose catalog
// drives a run
type SourceExtractor interface {
	ProductURL(sku string) (string, error)
	ExtractProduct(html, sku string) (ListedProduct, error)
}

// CandidateExtractor defines the interface for a comparison retailer's
// search results
type CandidateExtractor interface {
	SearchURL(query string) string
	ExtractCandidates(html string) ([]CandidateProduct, error)
}

// ResultRepository defines the interface for persisting run output
type ResultRepository interface {
	SaveProducts(ctx context.Context, products []ListedProduct) error
	SaveComparisons(ctx context.Context, records []ComparisonRecord) error
}
