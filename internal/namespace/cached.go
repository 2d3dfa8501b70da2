package namespace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Cached wraps a resolver with a Store.
// Only real resolutions are stored; fallbacks to the identifier are retried on
// the next call. Store failures are logged and resolution continues uncached.
type Cached struct {
	next   Resolver
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached creates a caching resolver; a zero ttl uses the store default
func NewCached(next Resolver, store Store, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, store: store, ttl: ttl, logger: logger}
}

// Resolve returns the cached location or asks the wrapped resolver
func (c *Cached) Resolve(ctx context.Context, publicID string) string {
	location, err := c.store.Get(ctx, publicID)
	if err == nil {
		return location
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Warn("namespace cache read failed",
			zap.String("namespace", publicID),
			zap.Error(err))
	}

	location = c.next.Resolve(ctx, publicID)
	if location == publicID {
		return location
	}

	if err := c.store.Set(ctx, publicID, location, c.ttl); err != nil {
		c.logger.Warn("namespace cache write failed",
			zap.String("namespace", publicID),
			zap.Error(err))
	}
	return location
}

// Forget drops the cached locations of the given identifiers
func (c *Cached) Forget(ctx context.Context, publicIDs ...string) error {
	for _, id := range publicIDs {
		if err := c.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to forget %s: %w", id, err)
		}
	}
	return nil
}

// Flush drops every cached location
func (c *Cached) Flush(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear namespace cache: %w", err)
	}
	c.logger.Info("namespace cache cleared")
	return nil
}
