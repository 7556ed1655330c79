package webcrawl

import "context"

// Task is one unit of pending crawl work: an address and the link depth
// at which it was first claimed.
type Task struct {
	URL   string
	Depth int
}

// Page is the result record for a successfully fetched and parsed address.
// Pages are immutable once recorded.
type Page struct {
	URL     string
	Host    string
	Depth   int
	Content string   // raw response body
	Links   []string // absolute http(s) links in document order
}

// ResultStore collects pages and per-host page counts for a crawl.
// Implementations must be safe for concurrent use.
type ResultStore interface {
	// RecordPage appends the page and increments the counter for its host.
	RecordPage(page *Page)

	// DomainCount returns the number of pages recorded for host.
	// The value may be stale relative to concurrent RecordPage calls.
	DomainCount(host string) int

	// Pages returns a snapshot of recorded pages in recording order.
	Pages() []*Page
}

// PageWriter exports crawled pages with atomic semantics.
// Save writes to a pending location; Commit makes changes permanent;
// Abort discards pending changes.
type PageWriter interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}
