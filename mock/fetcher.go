package mock

import (
	"context"

	"github.com/fwojciec/webcrawl"
)

var _ webcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of webcrawl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

var _ webcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of webcrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(ctx context.Context, html string, baseURL string) ([]string, error)
}

func (e *LinkExtractor) ExtractLinks(ctx context.Context, html string, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(ctx, html, baseURL)
}
