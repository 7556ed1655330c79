// Package bloom provides a probabilistic prefilter for visited addresses.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by address strings.
// Test may run concurrently with other Test calls; TestAndAdd needs
// exclusive access.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected addresses
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Test returns true if the address might have been added.
// False positives are possible; false negatives are not.
func (f *Filter) Test(addr string) bool {
	return f.f.TestString(addr)
}

// TestAndAdd adds the address and reports whether it might already
// have been present.
func (f *Filter) TestAndAdd(addr string) bool {
	return f.f.TestAndAddString(addr)
}
