// Package redis provides Redis-backed adapters shared across API replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caquick/caquick-api/internal/ports"
)

// LoginThrottle is a fixed-window attempt counter shared by every replica.
// Each key may make Limit attempts per Window; the window starts at the first attempt.
type LoginThrottle struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

var _ ports.LoginThrottle = (*LoginThrottle)(nil)

// LoginThrottleOptions configures a LoginThrottle.
type LoginThrottleOptions struct {
	Limit  int
	Window time.Duration
	Prefix string // default "login_throttle:"
}

// NewLoginThrottle creates a Redis-backed login throttle.
func NewLoginThrottle(client redis.UniversalClient, opts LoginThrottleOptions) (*LoginThrottle, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if opts.Window <= 0 {
		return nil, errors.New("window must be positive")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "login_throttle:"
	}
	return &LoginThrottle{
		client: client,
		prefix: prefix,
		limit:  int64(opts.Limit),
		window: opts.Window,
	}, nil
}

// Allow increments the counter for key and reports whether it is still within the limit.
func (t *LoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("throttle key cannot be empty")
	}
	k := t.prefix + key

	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, t.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val() <= t.limit, nil
}

// Reset clears the counter for key.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return t.client.Del(ctx, t.prefix+key).Err()
}
