package vinted

import (
	"context"
	"sync"
	"time"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/metrics"
)

const windowLength = 60 * time.Second

// Limiter gates outbound catalog requests with two simultaneous constraints:
// a minimum spacing between any two consecutive requests and a maximum count
// of requests within a rolling 60-second window. One instance is shared by
// every fetch in the process, so throughput is globally capped no matter how
// many searches are configured.
type Limiter struct {
	mu           sync.Mutex
	minDelay     time.Duration
	maxPerWindow int

	windowStart time.Time
	lastRequest time.Time
	count       int

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// WithSleepFunc overrides the suspension primitive for testing.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) LimiterOption {
	return func(l *Limiter) {
		l.sleepFunc = f
	}
}

// NewLimiter creates a limiter enforcing minDelay between requests and at
// most maxPerWindow requests per rolling minute.
func NewLimiter(minDelay time.Duration, maxPerWindow int, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		minDelay:     minDelay,
		maxPerWindow: maxPerWindow,
		nowFunc:      time.Now,
		sleepFunc:    sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.nowFunc()
	return l
}

// Acquire blocks until the next request may proceed. It never rejects: the
// only error it can return is the context's on cancellation. Both the window
// check and the spacing check run on every call; a window wait that already
// elapsed counts toward the spacing requirement.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.nowFunc()
	defer func() {
		metrics.RateLimitWaitSeconds.Observe(l.nowFunc().Sub(start).Seconds())
	}()

	now := l.nowFunc()
	if now.Sub(l.windowStart) > windowLength {
		l.count = 0
		l.windowStart = now
	}

	if l.count >= l.maxPerWindow {
		if wait := windowLength - now.Sub(l.windowStart); wait > 0 {
			if err := l.sleepFunc(ctx, wait); err != nil {
				return err
			}
		}
		l.count = 0
		l.windowStart = l.nowFunc()
		now = l.windowStart
	}

	if !l.lastRequest.IsZero() {
		if since := now.Sub(l.lastRequest); since < l.minDelay {
			if err := l.sleepFunc(ctx, l.minDelay-since); err != nil {
				return err
			}
		}
	}

	l.lastRequest = l.nowFunc()
	l.count++
	return nil
}

// sleepContext suspends for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
