package game

import (
	"context"
	"time"
)

// FrameLimiter paces the loop to Limit frames per second. A zero limit
// runs unthrottled.
type FrameLimiter struct {
	Limit int
	next  time.Time
}

// NewFrameLimiter creates a limiter for fps frames per second.
func NewFrameLimiter(fps int) *FrameLimiter {
	return &FrameLimiter{Limit: fps}
}

// Wait blocks until the next frame is due or ctx is done.
func (f *FrameLimiter) Wait(ctx context.Context) error {
	if f.Limit <= 0 {
		f.next = time.Time{}
		return ctx.Err()
	}
	target := time.Second / time.Duration(f.Limit)
	now := time.Now()
	if f.next.IsZero() {
		f.next = now.Add(target)
	} else {
		f.next = f.next.Add(target)
	}
	// Resync after a hitch instead of racing to catch up.
	if now.Sub(f.next) > target {
		f.next = now.Add(target)
	}

	t := time.NewTimer(time.Until(f.next))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
