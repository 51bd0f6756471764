package redis

import (
	"context"
	"errors"
	"time"

	"github.com/eldoah/promo-hub/pkg/circuitbreaker"
)

// ListingCache stores ready-to-serve public listings.
// It satisfies query.ListingCache and eventhandler.ListingInvalidator.
type ListingCache struct {
	cache   *Cache
	ttl     time.Duration
	breaker *circuitbreaker.Breaker
}

// NewListingCache creates a listing cache. A non-positive ttl uses TTLListing.
func NewListingCache(cache *Cache, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = TTLListing
	}
	return &ListingCache{cache: cache, ttl: ttl}
}

// WithBreaker guards reads and writes with cb. While the breaker is open
// reads report a miss and writes are skipped. Invalidation always goes
// through.
func (l *ListingCache) WithBreaker(cb *circuitbreaker.Breaker) *ListingCache {
	l.breaker = cb
	return l
}

// GetListing loads the listing stored under key into dest.
// A miss is reported as false with a nil error.
func (l *ListingCache) GetListing(ctx context.Context, key string, dest any) (bool, error) {
	hit := false
	err := l.guard(ctx, func(ctx context.Context) error {
		err := l.cache.Get(ctx, ListingKey(key), dest)
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		if err == nil {
			hit = true
		}
		return err
	})
	return hit, err
}

// SetListing stores a listing for the configured TTL.
func (l *ListingCache) SetListing(ctx context.Context, key string, value any) error {
	return l.guard(ctx, func(ctx context.Context) error {
		return l.cache.Set(ctx, ListingKey(key), value, l.ttl)
	})
}

// Invalidate drops the given listings.
func (l *ListingCache) Invalidate(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = ListingKey(k)
	}
	return l.cache.Delete(ctx, full...)
}

func (l *ListingCache) guard(ctx context.Context, fn func(context.Context) error) error {
	if l.breaker == nil {
		return fn(ctx)
	}
	if err := l.breaker.Do(ctx, fn); !errors.Is(err, circuitbreaker.ErrOpen) {
		return err
	}
	return nil
}
