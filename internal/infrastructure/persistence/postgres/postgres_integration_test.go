//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres and returns a migrated connection.
func startPostgres(t *testing.T) *Connection {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("promo"),
		tcpostgres.WithUsername("promo"),
		tcpostgres.WithPassword("promo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := NewConnectionFromURL(ctx, dsn, DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	ran, err := NewMigrator(conn).Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, len(GetMigrations()), ran)
	return conn
}

func truncate(t *testing.T, conn *Connection, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := conn.Exec(context.Background(), "TRUNCATE "+table)
		require.NoError(t, err)
	}
}

func TestPostgresStores(t *testing.T) {
	conn := startPostgres(t)

	t.Run("bonuses", func(t *testing.T) {
		truncate(t, conn, "bonuses")
		storetest.BonusRepository(t, NewBonusRepository(conn))
	})

	t.Run("leaderboards", func(t *testing.T) {
		truncate(t, conn, "leaderboards")
		storetest.LeaderboardRepository(t, NewLeaderboardRepository(conn))
	})

	t.Run("counter", func(t *testing.T) {
		truncate(t, conn, "counters")
		storetest.CounterStore(t, NewCounterStore(conn))

		truncate(t, conn, "counters")
		storetest.EmptyCounterSeed(t, NewCounterStore(conn))
	})

	t.Run("admin users", func(t *testing.T) {
		truncate(t, conn, "admin_users")
		storetest.UserRepository(t, NewUserRepository(conn))
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		_, err := NewBonusRepository(conn).FindByID(context.Background(), "not-a-uuid")
		assert.True(t, shared.IsNotFound(err))
		_, err = NewLeaderboardRepository(conn).FindByID(context.Background(), "not-a-uuid")
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestMigrator_RollbackAndStatus(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	m := NewMigrator(conn)

	version, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, version)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 4)
	assert.True(t, status[0].IsApplied)
	assert.False(t, status[3].IsApplied)

	ran, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
}
