package persistence

import (
	"context"
	"testing"

	"github.com/eldoah/promo-hub/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverMemory}}

	st, err := Open(context.Background(), cfg, Options{}, nil)
	require.NoError(t, err)
	defer st.Close(context.Background())

	assert.Equal(t, config.DriverMemory, st.Driver)
	assert.NotNil(t, st.Users)
	assert.NotNil(t, st.Bonuses)
	assert.NotNil(t, st.Leaderboards)
	assert.NotNil(t, st.Counter)
	assert.Nil(t, st.Health)
	assert.Nil(t, st.Postgres)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	_, err := Open(context.Background(), cfg, Options{}, nil)
	assert.ErrorContains(t, err, `unknown storage driver "sqlite"`)
}

func TestOpen_PostgresGivesUpAfterAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{
		Storage:  config.StorageConfig{Driver: config.DriverPostgres, ConnectAttempts: 2},
		Database: config.DatabaseConfig{URL: "postgres://nobody@127.0.0.1:1/none?sslmode=disable"},
	}
	_, err := Open(ctx, cfg, Options{}, nil)
	assert.Error(t, err)
}
