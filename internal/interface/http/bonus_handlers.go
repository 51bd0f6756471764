package http

import (
	"net/http"
	"strings"

	"github.com/eldoah/promo-hub/internal/application/query"
	"github.com/go-chi/chi/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// BONUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListPublicBonuses handles GET /api/bonuses/public.
func (s *Server) handleListPublicBonuses(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListPublicBonuses.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, items)
}

// handleListBonuses handles GET /api/admin/bonuses[?active=true].
func (s *Server) handleListBonuses(w http.ResponseWriter, r *http.Request) {
	q := query.ListBonusesQuery{
		ActiveOnly: strings.EqualFold(r.URL.Query().Get("active"), "true"),
	}

	items, err := s.deps.ListBonuses.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, items)
}

// handleGetBonus handles GET /api/admin/bonuses/{id}.
func (s *Server) handleGetBonus(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.GetBonus.Handle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// handleCreateBonus handles POST /api/admin/bonuses.
func (s *Server) handleCreateBonus(w http.ResponseWriter, r *http.Request) {
	var req createBonusRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	b, err := s.deps.CreateBonus.Handle(r.Context(), req.command())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, b)
}

// handleUpdateBonus handles PATCH /api/admin/bonuses/{id}.
func (s *Server) handleUpdateBonus(w http.ResponseWriter, r *http.Request) {
	var req updateBonusRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	b, err := s.deps.UpdateBonus.Handle(r.Context(), req.command(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// handleDeleteBonus handles DELETE /api/admin/bonuses/{id}.
func (s *Server) handleDeleteBonus(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteBonus.Handle(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONMessage(w, r, http.StatusOK, "Bonus deleted successfully")
}
