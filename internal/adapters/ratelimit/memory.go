// Package ratelimit provides an in-process login throttle for single-replica deployments.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"github.com/caquick/caquick-api/internal/ports"
)

// Options configures a MemoryThrottle.
type Options struct {
	// Limit is the burst of attempts allowed per key; the bucket refills fully over Window.
	Limit  int
	Window time.Duration
	// Now overrides the clock used for token-bucket accounting.
	Now func() time.Time
}

// MemoryThrottle keeps one token bucket per key. Idle keys expire after Window.
type MemoryThrottle struct {
	limiters *ttlcache.Cache[string, *rate.Limiter]
	every    rate.Limit
	burst    int
	now      func() time.Time
}

var _ ports.LoginThrottle = (*MemoryThrottle)(nil)

// NewMemoryThrottle creates a throttle. Call Start to run expiry and Stop on shutdown.
func NewMemoryThrottle(opts Options) (*MemoryThrottle, error) {
	if opts.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if opts.Window <= 0 {
		return nil, errors.New("window must be positive")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *rate.Limiter](opts.Window),
	)
	return &MemoryThrottle{
		limiters: cache,
		every:    rate.Every(opts.Window / time.Duration(opts.Limit)),
		burst:    opts.Limit,
		now:      now,
	}, nil
}

// Start runs the expiry loop; it blocks until Stop is called.
func (t *MemoryThrottle) Start() { t.limiters.Start() }

// Stop ends the expiry loop.
func (t *MemoryThrottle) Stop() { t.limiters.Stop() }

// Allow consumes one attempt for key.
func (t *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("throttle key cannot be empty")
	}
	item, _ := t.limiters.GetOrSet(key, rate.NewLimiter(t.every, t.burst))
	return item.Value().AllowN(t.now(), 1), nil
}

// Reset forgets key so its next attempt starts with a full bucket.
func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.limiters.Delete(key)
	return nil
}

// Len reports how many keys are currently tracked.
func (t *MemoryThrottle) Len() int { return t.limiters.Len() }
