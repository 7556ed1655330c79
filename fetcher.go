package webcrawl

import "context"

// Fetcher retrieves the raw content of a page.
type Fetcher interface {
	// Fetch issues a GET for the URL and returns the response body as text.
	// Failures carry ENETWORK, ETIMEOUT, EHTTPSTATUS or EMISSINGHOST codes.
	// The context controls cancellation.
	Fetch(ctx context.Context, url string) (string, error)
}

// LinkExtractor finds outbound links in a page.
type LinkExtractor interface {
	// ExtractLinks parses HTML and returns every absolute http or https
	// link in document order. The baseURL is used to resolve relative URLs.
	// Malformed individual links are skipped rather than reported.
	ExtractLinks(ctx context.Context, html string, baseURL string) ([]string, error)
}
