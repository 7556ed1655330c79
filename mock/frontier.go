package mock

import (
	"context"
	"time"

	"github.com/fwojciec/webcrawl"
)

var _ webcrawl.VisitedRegistry = (*VisitedRegistry)(nil)

// VisitedRegistry is a mock implementation of webcrawl.VisitedRegistry.
type VisitedRegistry struct {
	ClaimFn func(url string) bool
	LenFn   func() int
}

func (r *VisitedRegistry) Claim(url string) bool {
	return r.ClaimFn(url)
}

func (r *VisitedRegistry) Len() int {
	return r.LenFn()
}

var _ webcrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of webcrawl.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}

var _ webcrawl.Clock = (*Clock)(nil)

// Clock is a mock implementation of webcrawl.Clock.
type Clock struct {
	NowFn   func() time.Time
	SleepFn func(ctx context.Context, d time.Duration) error
}

func (c *Clock) Now() time.Time {
	return c.NowFn()
}

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	return c.SleepFn(ctx, d)
}
