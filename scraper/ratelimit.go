package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter spaces out upstream requests with a randomized pause of
// base plus up to jitter. It never escalates.
type RateLimiter struct {
	base   time.Duration
	jitter time.Duration

	mu   sync.Mutex
	rand func() float64
}

// NewRateLimiter returns a limiter drawing delays from [base, base+jitter).
func NewRateLimiter(base, jitter time.Duration) *RateLimiter {
	if base < 0 {
		base = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &RateLimiter{base: base, jitter: jitter, rand: rand.Float64}
}

// Delay returns the pause to take before the next request.
func (l *RateLimiter) Delay() time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	f := l.rand()
	l.mu.Unlock()
	return l.base + time.Duration(f*float64(l.jitter))
}

// Wait sleeps for Delay or until ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	d := l.Delay()
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
