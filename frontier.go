package webcrawl

import "context"

// VisitedRegistry records which addresses have been claimed by a crawl.
type VisitedRegistry interface {
	// Claim records url and returns true the first time it is called for
	// that url; every later call returns false. Concurrent callers never
	// both observe true for the same url.
	Claim(url string) bool

	// Len returns the number of claimed addresses.
	Len() int
}

// DomainLimiter provides per-host request spacing.
type DomainLimiter interface {
	// Wait blocks until a request to host may be sent.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}
