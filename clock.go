package webcrawl

import (
	"context"
	"time"
)

// Clock abstracts time so that rate limiting can be tested deterministically.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until the context is canceled.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is a Clock backed by the time package.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep pauses for d. Non-positive durations return immediately.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
