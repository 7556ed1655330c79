package inmem

import (
	"sync"

	"github.com/fwojciec/webcrawl"
)

var _ webcrawl.ResultStore = (*ResultStore)(nil)

// ResultStore holds crawled pages and per-host page counts in memory.
// It is safe for concurrent use by multiple goroutines.
type ResultStore struct {
	mu     sync.Mutex
	pages  []*webcrawl.Page
	counts map[string]int
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		counts: make(map[string]int),
	}
}

// RecordPage appends page and increments the count for its host.
func (s *ResultStore) RecordPage(page *webcrawl.Page) {
	host := page.Host
	if host == "" {
		host = webcrawl.Host(page.URL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page)
	if host != "" {
		s.counts[host]++
	}
}

// DomainCount returns the number of pages recorded for host.
func (s *ResultStore) DomainCount(host string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[host]
}

// Pages returns a copy of the recorded pages in recording order.
func (s *ResultStore) Pages() []*webcrawl.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]*webcrawl.Page, len(s.pages))
	copy(pages, s.pages)
	return pages
}
