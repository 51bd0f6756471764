// Package http implements the REST API of promo-hub: public listings,
// the visitor counter, the admin CRUD surface, health checks and metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/application/query"
	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
	"github.com/eldoah/promo-hub/internal/interface/http/handlers"
	"github.com/eldoah/promo-hub/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// MaxBodyBytes caps request bodies. Player exports can be large.
	MaxBodyBytes int64

	// AllowedOrigins - allowed origins for CORS. Empty disables CORS.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP on /api (0 = disabled).
	RateLimitPerMinute int
	RateLimitBurst     int

	// CronSecret guards /api/eldoah-stats/cron. Empty leaves it open.
	CronSecret string

	// BumpMin and BumpMax bound the increment applied by the cron endpoint.
	BumpMin int64
	BumpMax int64

	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool

	// Version is reported by / and the health endpoints.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20,
		MaxBodyBytes:       10 << 20,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 120,
		RateLimitBurst:     30,
		BumpMin:            10,
		BumpMax:            20,
		Version:            "dev",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Command Handlers (CQRS Write Side)
	CreateBonus       *command.CreateBonusHandler
	UpdateBonus       *command.UpdateBonusHandler
	DeleteBonus       *command.DeleteBonusHandler
	CreateLeaderboard *command.CreateLeaderboardHandler
	UpdateLeaderboard *command.UpdateLeaderboardHandler
	DeleteLeaderboard *command.DeleteLeaderboardHandler
	Login             *command.LoginHandler
	Logout            *command.LogoutHandler

	// Query Handlers (CQRS Read Side)
	ListBonuses            *query.ListBonusesHandler
	ListPublicBonuses      *query.ListPublicBonusesHandler
	GetBonus               *query.GetBonusHandler
	ListLeaderboards       *query.ListLeaderboardsHandler
	ListPublicLeaderboards *query.ListPublicLeaderboardsHandler
	GetLeaderboard         *query.GetLeaderboardHandler
	CurrentAdmin           *query.CurrentAdminHandler

	Counter *counter.Service

	// Optional
	Metrics *metrics.Metrics
	Health  *handlers.Health
	Logger  *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger
	validator  *validation.Validator
	cronAuth   *handlers.SecretAuth

	limiter *handlers.KeyedRateLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config:    config,
		deps:      deps,
		logger:    deps.Logger,
		validator: validation.New(),
		cronAuth:  handlers.NewSecretAuth(config.CronSecret),
		startedAt: time.Now(),
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.deps.Health == nil {
		s.deps.Health = handlers.NewHealth(config.Version, 0)
	}

	if config.RateLimitPerMinute > 0 {
		s.limiter = handlers.NewKeyedRateLimiter(config.RateLimitPerMinute, config.RateLimitBurst, 10*time.Minute)
	}

	s.router = s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(handlers.SecurityHeadersMiddleware)
	if s.config.MaxBodyBytes > 0 {
		r.Use(handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimitMiddleware)
		}

		// ─────────────────────────────────────────────────────────────────────
		// Public Endpoints
		// ─────────────────────────────────────────────────────────────────────
		r.Get("/bonuses/public", s.handleListPublicBonuses)
		r.Get("/leaderboards/public", s.handleListPublicLeaderboards)

		r.Route("/eldoah-stats", func(r chi.Router) {
			r.Use(handlers.NoCacheMiddleware)
			r.Get("/", s.handleGetStats)
			r.Post("/", s.handleIncrementStats)

			r.Group(func(r chi.Router) {
				r.Use(s.cronAuth.Middleware)
				r.Get("/cron", s.handleCronBump)
				r.Post("/cron", s.handleCronBump)
			})
		})

		// ─────────────────────────────────────────────────────────────────────
		// Admin Endpoints
		// ─────────────────────────────────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			r.Use(handlers.NoCacheMiddleware)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Post("/logout", s.handleLogout)
				r.Get("/me", s.handleMe)

				r.Route("/bonuses", func(r chi.Router) {
					r.Get("/", s.handleListBonuses)
					r.Post("/", s.handleCreateBonus)
					r.Get("/{id}", s.handleGetBonus)
					r.Patch("/{id}", s.handleUpdateBonus)
					r.Delete("/{id}", s.handleDeleteBonus)
				})

				r.Route("/leaderboards", func(r chi.Router) {
					r.Get("/", s.handleListLeaderboards)
					r.Post("/", s.handleCreateLeaderboard)
					r.Get("/{id}", s.handleGetLeaderboard)
					r.Patch("/{id}", s.handleUpdateLeaderboard)
					r.Delete("/{id}", s.handleDeleteLeaderboard)
				})
			})
		})
	})

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "address", s.config.Address())

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the time since the server was created or last started.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
