package domain

import "context"

// PageFetcher turns a URL into pruned page markdown. Implementations own a
// long-lived browser for the whole enrichment pass and must be safe for
// concurrent Fetch calls. An empty markdown return with nil error means the
// page had no usable content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (markdown string, err error)
	Close() error
}
