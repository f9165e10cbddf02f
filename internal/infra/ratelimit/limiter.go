package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter manages one bucket per key (client, tenant, IP).
type Limiter struct {
	mu       sync.RWMutex
	buckets  map[string]*Bucket
	capacity int
	interval time.Duration
}

// NewLimiter gives every key capacity tokens, refilled one per interval.
func NewLimiter(capacity int, interval time.Duration) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*Bucket),
		capacity: capacity,
		interval: interval,
	}
}

// PerMinute is a Limiter allowing n requests per minute per key.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return NewLimiter(1, 0)
	}
	return NewLimiter(n, time.Minute/time.Duration(n))
}

func (l *Limiter) bucket(key string) *Bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = NewBucket(l.capacity, l.interval)
	l.buckets[key] = b
	return b
}

func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Sweep drops buckets idle for longer than maxIdle.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	n := 0
	for key, b := range l.buckets {
		if now.Sub(b.idleSince()) > maxIdle {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Run sweeps idle buckets every 5 minutes until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(10 * time.Minute)
		}
	}
}
