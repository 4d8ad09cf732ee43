package oidc

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
)

// clientCache holds discovered providers for the lifetime of a Client.
// Concurrent first use of a provider runs discovery once; failures are not stored.
type clientCache struct {
	mu      sync.RWMutex
	entries map[domainauth.Provider]*discoveredProvider
	group   singleflight.Group
}

func newClientCache() *clientCache {
	return &clientCache{entries: make(map[domainauth.Provider]*discoveredProvider)}
}

func (c *clientCache) get(p domainauth.Provider) (*discoveredProvider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dp, ok := c.entries[p]
	return dp, ok
}

// getOrLoad returns the cached provider or runs load exactly once across concurrent callers.
func (c *clientCache) getOrLoad(
	ctx context.Context,
	p domainauth.Provider,
	load func(context.Context) (*discoveredProvider, error),
) (*discoveredProvider, error) {
	if dp, ok := c.get(p); ok {
		return dp, nil
	}

	v, err, _ := c.group.Do(string(p), func() (any, error) {
		if dp, ok := c.get(p); ok {
			return dp, nil
		}
		// Shared across callers, so one caller's cancellation must not fail the others.
		dp, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[p] = dp
		c.mu.Unlock()
		return dp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discoveredProvider), nil
}
