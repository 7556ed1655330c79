package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/webcrawl"
	"golang.org/x/time/rate"
)

var _ webcrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces requests to each host at least a minimum interval
// apart. Each host gets a token bucket with a burst of 1, so a reservation
// made by one caller pushes back every later caller for the same host.
// Requests to different hosts do not wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	hosts    map[string]*hostSlot
	interval time.Duration
	clock    webcrawl.Clock
}

// hostSlot is the rate state of one host.
type hostSlot struct {
	limiter *rate.Limiter
	// next is the earliest instant the following request may be sent.
	// The bucket works in float tokens and its delays can fall short of
	// the interval by a few nanoseconds; next is exact.
	next time.Time
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithClock sets the clock used to read the time and to sleep.
// Defaults to webcrawl.SystemClock.
func WithClock(clock webcrawl.Clock) LimiterOption {
	return func(d *DomainLimiter) {
		d.clock = clock
	}
}

// NewDomainLimiter creates a DomainLimiter enforcing interval between
// consecutive requests to the same host. A zero interval disables waiting.
func NewDomainLimiter(interval time.Duration, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		hosts:    make(map[string]*hostSlot),
		interval: interval,
		clock:    webcrawl.SystemClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until a request to host may be sent.
// The slot is reserved before sleeping, so the reserved instant is the
// request's send time even if the caller wakes late.
// Returns an error if the context is canceled before the wait completes;
// the reservation is then returned to the bucket.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.interval <= 0 {
		return nil
	}

	// Read, compute and update in one critical section so that two callers
	// for the same host can never both see a stale last-request time.
	d.mu.Lock()
	slot, ok := d.hosts[host]
	if !ok {
		slot = &hostSlot{limiter: rate.NewLimiter(rate.Every(d.interval), 1)}
		d.hosts[host] = slot
	}
	now := d.clock.Now()
	r := slot.limiter.ReserveN(now, 1)
	sendAt := now.Add(r.DelayFrom(now))
	if sendAt.Before(slot.next) {
		sendAt = slot.next
	}
	prev := slot.next
	slot.next = sendAt.Add(d.interval)
	d.mu.Unlock()

	delay := sendAt.Sub(now)
	if delay <= 0 {
		return nil
	}
	if err := d.clock.Sleep(ctx, delay); err != nil {
		d.mu.Lock()
		// Give the slot back unless a later caller has queued behind it.
		if slot.next.Equal(sendAt.Add(d.interval)) {
			slot.next = prev
		}
		r.CancelAt(d.clock.Now())
		d.mu.Unlock()
		return err
	}
	return nil
}
