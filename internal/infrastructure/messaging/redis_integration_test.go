//go:build integration

package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func redisURL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func newRedisBus(t *testing.T, url, instance string) *RedisEventBus {
	t.Helper()
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	bus, err := NewRedisEventBus(context.Background(), RedisEventBusConfig{
		Client:         client,
		InstanceID:     instance,
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBus_FanOut(t *testing.T) {
	url := redisURL(t)
	a := newRedisBus(t, url, "a")
	b := newRedisBus(t, url, "b")

	fromA := make(chan shared.Event, 4)
	fromB := make(chan shared.Event, 4)
	require.NoError(t, a.SubscribeAll(func(_ context.Context, e shared.Event) error { fromA <- e; return nil }))
	require.NoError(t, b.SubscribeAll(func(_ context.Context, e shared.Event) error { fromB <- e; return nil }))

	require.NoError(t, a.Publish(context.Background(), shared.NewContentChangedEvent(shared.EventLeaderboardUpdated, "lb1", "Weekly", true)))

	select {
	case e := <-fromB:
		assert.Equal(t, shared.EventLeaderboardUpdated, e.EventType())
		assert.Equal(t, "lb1", e.AggregateID())
		assert.Equal(t, "Weekly", e.Payload()["name"])
	case <-time.After(5 * time.Second):
		t.Fatal("remote instance did not receive the event")
	}

	// Local delivery happens once, the echo from Redis is skipped.
	require.Len(t, fromA, 1)
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, fromA, 1)
}
