// Package persistence selects and opens the content store named by
// STORAGE_DRIVER. The driver packages live underneath it.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eldoah/promo-hub/config"
	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/memory"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/mongodb"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/postgres"
	"github.com/eldoah/promo-hub/pkg/retry"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores bundles the repositories of one driver.
type Stores struct {
	Driver       string
	Users        admin.UserRepository
	Bonuses      bonus.Repository
	Leaderboards leaderboard.Repository
	Counter      counter.Store

	// Health is nil for the memory driver.
	Health Pinger

	// Postgres is set only for the postgres driver. promoctl migrate uses it.
	Postgres *postgres.Connection

	closeFn func(ctx context.Context)
}

// Close releases the underlying connection.
func (s *Stores) Close(ctx context.Context) {
	if s.closeFn != nil {
		s.closeFn(ctx)
	}
}

// Options tunes Open.
type Options struct {
	// Migrate applies pending postgres migrations after connecting.
	Migrate bool
}

// Open connects to the configured store, retrying on startup failures.
func Open(ctx context.Context, cfg *config.Config, opts Options, log *slog.Logger) (*Stores, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("driver", cfg.Storage.Driver)

	b := retry.Startup(cfg.Storage.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		log.Warn("store not reachable, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
	})

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, opts, b, log)
	case config.DriverMongo:
		return openMongo(ctx, cfg, b, log)
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return &Stores{
			Driver:       config.DriverMemory,
			Users:        memory.NewUserRepository(),
			Bonuses:      memory.NewBonusRepository(),
			Leaderboards: memory.NewLeaderboardRepository(),
			Counter:      memory.NewCounterStore(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, opts Options, b *retry.Backoff, log *slog.Logger) (*Stores, error) {
	pool := postgres.DefaultPoolOptions()
	pool.MaxConns = int32(cfg.Database.MaxConns)
	pool.MinConns = int32(cfg.Database.MinConns)
	pool.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pool.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	conn, err := retry.DoWithData(ctx, b, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info("database connection established")

	if opts.Migrate {
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations completed", "applied", applied)
	}

	return &Stores{
		Driver:       config.DriverPostgres,
		Users:        postgres.NewUserRepository(conn),
		Bonuses:      postgres.NewBonusRepository(conn),
		Leaderboards: postgres.NewLeaderboardRepository(conn),
		Counter:      postgres.NewCounterStore(conn),
		Health:       conn,
		Postgres:     conn,
		closeFn:      func(context.Context) { conn.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, b *retry.Backoff, log *slog.Logger) (*Stores, error) {
	conn, err := retry.DoWithData(ctx, b, func(ctx context.Context) (*mongodb.Connection, error) {
		return mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	log.Info("mongo connection established", "database", cfg.Mongo.Database)

	if err := conn.EnsureIndexes(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	return &Stores{
		Driver:       config.DriverMongo,
		Users:        mongodb.NewUserRepository(conn),
		Bonuses:      mongodb.NewBonusRepository(conn),
		Leaderboards: mongodb.NewLeaderboardRepository(conn),
		Counter:      mongodb.NewCounterStore(conn),
		Health:       conn,
		closeFn: func(ctx context.Context) {
			if err := conn.Close(ctx); err != nil {
				log.Warn("failed to close mongo connection", "error", err)
			}
		},
	}, nil
}
