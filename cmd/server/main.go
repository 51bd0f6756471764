// Package main is the entry point of the promo-hub API server.
//
// The server backs the promo site: public bonuses and leaderboards, the
// "people joined" counter, and the admin dashboard API. It follows the
// layered layout of the repository:
//   - Domain: bonuses, leaderboards, counter, admin users
//   - Application: commands, queries, counter service, event handlers
//   - Infrastructure: postgres/mongo/memory stores, redis, event bus, scheduler
//   - Interface: HTTP API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eldoah/promo-hub/config"

	// Application layer
	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/application/eventhandler"
	"github.com/eldoah/promo-hub/internal/application/query"
	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/eldoah/promo-hub/internal/infrastructure/messaging"
	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/memory"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/redis"
	"github.com/eldoah/promo-hub/internal/infrastructure/scheduler"
	"github.com/eldoah/promo-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/eldoah/promo-hub/internal/interface/http"
	"github.com/eldoah/promo-hub/internal/interface/http/handlers"

	// Packages
	"github.com/eldoah/promo-hub/pkg/circuitbreaker"
	"github.com/eldoah/promo-hub/pkg/logger"
	"github.com/eldoah/promo-hub/pkg/retry"
)

// eventBus is what the server needs from either bus implementation.
type eventBus interface {
	shared.EventPublisher
	Use(mw ...messaging.Middleware)
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format := cfg.Observability.LogFormat
	if cfg.IsDevelopment() && os.Getenv("LOG_FORMAT") == "" {
		format = logger.FormatText
	}
	level := cfg.Observability.LogLevel
	if cfg.App.Debug && os.Getenv("LOG_LEVEL") == "" {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(level),
		Format: format,
		Attrs:  []slog.Attr{slog.String("service", cfg.App.Name)},
	})
	slog.SetDefault(log)

	log.Info("starting promo-hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled,
		"timezone", cfg.App.Timezone,
	)

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	stores, err := persistence.Open(ctx, cfg, persistence.Options{Migrate: cfg.Database.MigrateOnStart}, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing storage...")
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		stores.Close(closeCtx)
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional): sessions, listing cache, event fan-out
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.WorkerPoolSize = cfg.Scheduler.EventWorkers
	busConfig.Logger = log
	busConfig.Metrics = m

	var (
		sessions     admin.SessionStore = memory.NewSessionStore()
		listingCache query.ListingCache
		invalidator  eventhandler.ListingInvalidator
		bus          eventBus
		redisCache   *redis.Cache
	)

	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...")
		backoff := retry.Startup(cfg.Storage.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
			log.Warn("redis not reachable, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
		})
		redisCache, err = retry.DoWithData(ctx, backoff, func(ctx context.Context) (*redis.Cache, error) {
			return redis.NewCacheFromURL(ctx, cfg.Redis.URL)
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()

		breaker := circuitbreaker.CacheBreaker("listing-cache", func(name string, from, to circuitbreaker.State) {
			log.Warn("cache breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		})
		listings := redis.NewListingCache(redisCache, cfg.Redis.ListingTTL).WithBreaker(breaker)
		listingCache = listings
		invalidator = listings
		sessions = redis.NewSessionStore(redisCache)

		redisBus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
			Client:         redisCache.Client(),
			ChannelName:    cfg.Redis.EventsChannel,
			LocalBusConfig: busConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		bus = redisBus
		log.Info("Redis connection established")
	} else {
		bus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()
	bus.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	counterSvc := counter.NewService(stores.Counter, counter.Config{
		CacheTTL:      cfg.Counter.CacheTTL,
		RateWindow:    cfg.Counter.RateWindow,
		ReadSeed:      cfg.Counter.ReadSeed,
		IncrementSeed: cfg.Counter.IncrementSeed,
	}, counter.WithLogger(log), counter.WithPublisher(bus))

	if err := bootstrapAdmin(ctx, cfg, command.NewCreateAdminHandler(stores.Users, log), log); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if invalidator != nil {
		onContent := eventhandler.NewOnContentChangedHandler(invalidator, log)
		for _, t := range onContent.EventTypes() {
			if err := bus.Subscribe(t, onContent.Handle); err != nil {
				return fmt.Errorf("subscribe %s: %w", t, err)
			}
		}
	}
	onBumped := eventhandler.NewOnCounterBumpedHandler(counterSvc, log)
	if err := bus.Subscribe(shared.EventCounterBumped, onBumped.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventCounterBumped, err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = setupScheduler(cfg, counterSvc, m, log)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			if err := sched.Stop(); err != nil {
				log.Warn("scheduler stop", "error", err)
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewHealth(cfg.App.Version, 3*time.Second)
	if stores.Health != nil {
		health.Register(stores.Driver, stores.Health)
	}
	if redisCache != nil {
		health.Register("redis", redisCache)
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.RateLimitBurst = cfg.HTTP.RateLimitBurst
	httpConfig.SecureCookies = cfg.HTTP.SecureCookies
	httpConfig.CronSecret = cfg.Auth.CronSecret
	httpConfig.BumpMin = cfg.Counter.BumpMin
	httpConfig.BumpMax = cfg.Counter.BumpMax
	httpConfig.Version = cfg.App.Version

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		CreateBonus:       command.NewCreateBonusHandler(stores.Bonuses, bus, log),
		UpdateBonus:       command.NewUpdateBonusHandler(stores.Bonuses, bus, log),
		DeleteBonus:       command.NewDeleteBonusHandler(stores.Bonuses, bus, log),
		CreateLeaderboard: command.NewCreateLeaderboardHandler(stores.Leaderboards, stores.Bonuses, bus, log),
		UpdateLeaderboard: command.NewUpdateLeaderboardHandler(stores.Leaderboards, stores.Bonuses, bus, log),
		DeleteLeaderboard: command.NewDeleteLeaderboardHandler(stores.Leaderboards, bus, log),
		Login:             command.NewLoginHandler(stores.Users, sessions, cfg.Auth.SessionTTL, log),
		Logout:            command.NewLogoutHandler(sessions),

		ListBonuses:            query.NewListBonusesHandler(stores.Bonuses),
		ListPublicBonuses:      query.NewListPublicBonusesHandler(stores.Bonuses, listingCache, log),
		GetBonus:               query.NewGetBonusHandler(stores.Bonuses),
		ListLeaderboards:       query.NewListLeaderboardsHandler(stores.Leaderboards),
		ListPublicLeaderboards: query.NewListPublicLeaderboardsHandler(stores.Leaderboards, listingCache, log),
		GetLeaderboard:         query.NewGetLeaderboardHandler(stores.Leaderboards),
		CurrentAdmin:           query.NewCurrentAdminHandler(sessions, stores.Users),

		Counter: counterSvc,
		Metrics: m,
		Health:  health,
		Logger:  log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("promo-hub is running", "http_address", server.Address())

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", "error", err)
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupScheduler registers the counter jobs that are enabled.
func setupScheduler(cfg *config.Config, svc *counter.Service, m *metrics.Metrics, log *slog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
		Metrics:  m,
	})

	if cfg.Scheduler.BumpEnabled {
		schedule, err := scheduler.ParseSchedule(cfg.Scheduler.BumpCron)
		if err != nil {
			return nil, fmt.Errorf("COUNTER_BUMP_CRON: %w", err)
		}
		job := jobs.NewBumpCounterJob(svc, jobs.BumpCounterConfig{
			Min: cfg.Counter.BumpMin,
			Max: cfg.Counter.BumpMax,
		}, m, log)
		if err := sched.Register(job, schedule); err != nil {
			return nil, err
		}
	} else {
		log.Info("counter bump job disabled, only the cron endpoint bumps")
	}

	if cfg.Scheduler.PruneEnabled {
		job := jobs.NewPruneRateLimitsJob(svc, log)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Scheduler.PruneInterval)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

// bootstrapAdmin creates the configured admin unless it already exists.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, create *command.CreateAdminHandler, log *slog.Logger) error {
	if cfg.Auth.BootstrapEmail == "" {
		return nil
	}

	_, err := create.Handle(ctx, command.CreateAdminCommand{
		Email:    cfg.Auth.BootstrapEmail,
		Password: cfg.Auth.BootstrapPassword,
		Name:     "Admin",
		Role:     admin.RoleSuperAdmin,
	})
	switch {
	case err == nil:
		return nil
	case shared.IsAlreadyExists(err):
		log.Debug("bootstrap admin already exists", "email", cfg.Auth.BootstrapEmail)
		return nil
	default:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
}
