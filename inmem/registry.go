// Package inmem provides process-memory implementations of the shared crawl
// state: the visited registry and the result store.
package inmem

import (
	"sync"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/bloom"
)

// Bloom filter sizing for the registry prefilter.
const (
	registryExpectedURLs      = 10000
	registryFalsePositiveRate = 0.01
)

var _ webcrawl.VisitedRegistry = (*Registry)(nil)

// Registry is an exact set of claimed addresses.
// Repeat claims, the common case once pages link to each other, are
// rejected under a read lock. The Bloom filter sends addresses it has
// never seen straight to the write path; the map resolves its false
// positives so claims stay exact.
// It is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu      sync.RWMutex
	filter  *bloom.Filter
	visited map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		filter:  bloom.NewFilter(registryExpectedURLs, registryFalsePositiveRate),
		visited: make(map[string]struct{}),
	}
}

// Claim records url and returns true on the first call for that url.
func (r *Registry) Claim(url string) bool {
	if r.seen(url) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filter.TestAndAdd(url) {
		// Possibly seen: consult the exact set.
		if _, ok := r.visited[url]; ok {
			return false
		}
	}
	r.visited[url] = struct{}{}
	return true
}

// seen reports whether url is already claimed.
func (r *Registry) seen(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.filter.Test(url) {
		return false
	}
	_, ok := r.visited[url]
	return ok
}

// Len returns the number of claimed addresses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.visited)
}
