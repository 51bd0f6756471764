package http

import (
	"net/http"
	"time"

	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/domain/admin"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *admin.User `json:"user"`
}

// handleLogin handles POST /api/admin/login. The token is returned in the
// body and also set as an HttpOnly cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.Login.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    res.Session.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, r, http.StatusOK, loginResponse{
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
		User:      res.User,
	})
}

// handleLogout handles POST /api/admin/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session != nil {
		if err := s.deps.Logout.Handle(r.Context(), session.Token); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSONMessage(w, r, http.StatusOK, "Logged out")
}

// handleMe handles GET /api/admin/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.CurrentAdmin.Handle(r.Context(), sessionToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}
