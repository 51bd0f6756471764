package redis

import (
	"context"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/pkg/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable returns a cache whose every call fails fast.
func unreachable(t *testing.T) *Cache {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client)
}

func TestListingCache_BreakerTurnsOutageIntoMisses(t *testing.T) {
	ctx := context.Background()
	var transitions []circuitbreaker.State
	cb := circuitbreaker.New(circuitbreaker.Settings{
		Name:      "listing-cache",
		Threshold: 2,
		Cooldown:  time.Hour,
		OnChange: func(_ string, _, to circuitbreaker.State) {
			transitions = append(transitions, to)
		},
	})
	listings := NewListingCache(unreachable(t), time.Minute).WithBreaker(cb)

	var dest []string
	for i := 0; i < 2; i++ {
		_, err := listings.GetListing(ctx, "public:bonuses", &dest)
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())
	assert.Equal(t, []circuitbreaker.State{circuitbreaker.StateOpen}, transitions)

	ok, err := listings.GetListing(ctx, "public:bonuses", &dest)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, listings.SetListing(ctx, "public:bonuses", []string{"a"}))

	assert.Error(t, listings.Invalidate(ctx, "public:bonuses"), "invalidation bypasses the breaker")
}

func TestListingCache_NoBreakerReportsErrors(t *testing.T) {
	listings := NewListingCache(unreachable(t), 0)
	assert.Equal(t, TTLListing, listings.ttl)

	var dest []string
	_, err := listings.GetListing(context.Background(), "public:leaderboards", &dest)
	assert.Error(t, err)
}
