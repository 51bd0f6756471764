package http

import (
	"fmt"
	"net/http"

	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// VISITOR COUNTER HANDLERS
// These keep the flat response bodies the landing page already consumes.
// ══════════════════════════════════════════════════════════════════════════════

type statsResponse struct {
	TotalJoined int64 `json:"totalJoined"`
}

type incrementResponse struct {
	TotalJoined    int64  `json:"totalJoined"`
	AlreadyCounted bool   `json:"alreadyCounted,omitempty"`
	Message        string `json:"message,omitempty"`
}

type bumpResponse struct {
	Success     bool   `json:"success"`
	Increment   int64  `json:"increment"`
	TotalJoined int64  `json:"totalJoined"`
	Message     string `json:"message"`
}

type bareError struct {
	Error string `json:"error"`
}

// handleGetStats handles GET /api/eldoah-stats.
// A store failure falls back to the last value seen, or the seed.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Counter.Read(r.Context())
	if err != nil {
		total, ok := s.deps.Counter.LastKnown()
		if !ok {
			total = s.deps.Counter.ReadSeed()
		}
		s.logger.Warn("counter read failed, serving fallback",
			"total_joined", total,
			"stale", ok,
			"error", err,
		)
		writeBare(w, http.StatusOK, statsResponse{TotalJoined: total})
		return
	}

	writeBare(w, http.StatusOK, statsResponse{TotalJoined: snap.TotalJoined})
}

// handleIncrementStats handles POST /api/eldoah-stats.
func (s *Server) handleIncrementStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Counter.Increment(r.Context(), getClientIP(r))
	if err != nil {
		s.deps.Metrics.ObserveIncrement(metrics.OutcomeError)
		s.logger.Error("counter increment failed", "error", err, "request_id", getRequestID(r.Context()))
		writeBare(w, http.StatusInternalServerError, bareError{Error: "Failed to increment stats"})
		return
	}

	if res.AlreadyCounted {
		s.deps.Metrics.ObserveIncrement(metrics.OutcomeAlreadyCounted)
		writeBare(w, http.StatusOK, incrementResponse{
			TotalJoined:    res.TotalJoined,
			AlreadyCounted: true,
			Message:        counter.AlreadyCountedMessage,
		})
		return
	}

	s.deps.Metrics.ObserveIncrement(metrics.OutcomeCounted)
	writeBare(w, http.StatusOK, incrementResponse{TotalJoined: res.TotalJoined})
}

// handleCronBump handles GET and POST /api/eldoah-stats/cron.
func (s *Server) handleCronBump(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Counter.Bump(r.Context(), s.config.BumpMin, s.config.BumpMax)
	if err != nil {
		s.logger.Error("counter bump failed", "error", err, "request_id", getRequestID(r.Context()))
		writeBare(w, http.StatusInternalServerError, bareError{Error: "Failed to auto-increment stats"})
		return
	}

	s.deps.Metrics.ObserveBump()
	s.logger.Info("counter bumped", "increment", res.Increment, "total_joined", res.TotalJoined, "trigger", "http")
	writeBare(w, http.StatusOK, bumpResponse{
		Success:     true,
		Increment:   res.Increment,
		TotalJoined: res.TotalJoined,
		Message:     fmt.Sprintf("Counter incremented by %d", res.Increment),
	})
}
