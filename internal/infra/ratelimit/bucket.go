package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket wraps a rate.Limiter that gains one token per interval up to
// capacity, and remembers when it was last used. A non-positive interval
// disables limiting.
type Bucket struct {
	lim *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time

	now func() time.Time
}

func NewBucket(capacity int, interval time.Duration) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	b := &Bucket{lim: rate.NewLimiter(limit, capacity), now: time.Now}
	b.lastSeen = b.now()
	return b
}

func (b *Bucket) touch(t time.Time) {
	b.mu.Lock()
	b.lastSeen = t
	b.mu.Unlock()
}

// reserve takes a token if one is available, otherwise reports how long
// until the next one without consuming it.
func (b *Bucket) reserve() (time.Duration, bool) {
	now := b.now()
	b.touch(now)
	r := b.lim.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, false
	}
	return 0, true
}

func (b *Bucket) Allow() bool {
	now := b.now()
	b.touch(now)
	return b.lim.AllowN(now, 1)
}

// Wait blocks until a token is available. It fails fast when ctx ends, or
// when its deadline is too close for the next token.
func (b *Bucket) Wait(ctx context.Context) error {
	b.touch(b.now())
	if err := b.lim.Wait(ctx); err != nil {
		return fmt.Errorf("pacing: %w", err)
	}
	return nil
}

// idleSince reports when the bucket was last touched.
func (b *Bucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}
