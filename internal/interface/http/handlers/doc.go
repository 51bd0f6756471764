// Package handlers contains reusable HTTP building blocks: health checks,
// the keyed rate limiter and generic middleware.
//
// # Health Checks
//
// Health pings every registered dependency in parallel:
//
//	health := handlers.NewHealth("v1.0.0", 3*time.Second)
//	health.Register("postgres", conn)
//	health.Register("redis", cache)
//
//	status := health.Check(ctx)
//	if !status.Healthy {
//	    slog.Warn("health check failed", "message", status.Message)
//	}
//
// # Rate Limiting
//
// KeyedRateLimiter keeps one token bucket per client key and forgets
// idle clients:
//
//	limiter := handlers.NewKeyedRateLimiter(120, 30, 10*time.Minute)
//	defer limiter.Stop()
//	if !limiter.Allow(ip) { ... }
//
// # Middleware
//
// The middleware are plain func(http.Handler) http.Handler values and
// plug into chi directly:
//
//	cron := handlers.NewSecretAuth(os.Getenv("CRON_SECRET"))
//	r.Use(handlers.SecurityHeadersMiddleware, handlers.RequestSizeLimitMiddleware(1<<20))
//	r.With(cron.Middleware).Post("/cron", bump)
package handlers
