package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListPublicLeaderboards handles GET /api/leaderboards/public.
func (s *Server) handleListPublicLeaderboards(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListPublicLeaderboards.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, items)
}

// handleListLeaderboards handles GET /api/admin/leaderboards.
func (s *Server) handleListLeaderboards(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListLeaderboards.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, items)
}

// handleGetLeaderboard handles GET /api/admin/leaderboards/{id}.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := s.deps.GetLeaderboard.Handle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lb)
}

// handleCreateLeaderboard handles POST /api/admin/leaderboards.
func (s *Server) handleCreateLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req createLeaderboardRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	lb, err := s.deps.CreateLeaderboard.Handle(r.Context(), req.command())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("leaderboard created",
		"id", lb.ID,
		"players", len(lb.PlayerData),
		"request_id", getRequestID(r.Context()),
	)
	writeJSON(w, r, http.StatusCreated, lb)
}

// handleUpdateLeaderboard handles PATCH /api/admin/leaderboards/{id}.
func (s *Server) handleUpdateLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req updateLeaderboardRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	lb, err := s.deps.UpdateLeaderboard.Handle(r.Context(), req.command(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lb)
}

// handleDeleteLeaderboard handles DELETE /api/admin/leaderboards/{id}.
func (s *Server) handleDeleteLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteLeaderboard.Handle(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONMessage(w, r, http.StatusOK, "Leaderboard deleted successfully")
}
