package query

import (
	"context"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// CurrentAdminHandler разрешает токен сессии в администратора.
type CurrentAdminHandler struct {
	sessions admin.SessionStore
	users    admin.UserRepository
}

// NewCurrentAdminHandler создаёт новый обработчик.
func NewCurrentAdminHandler(sessions admin.SessionStore, users admin.UserRepository) *CurrentAdminHandler {
	return &CurrentAdminHandler{sessions: sessions, users: users}
}

// Session проверяет токен. Используется middleware на каждый админский запрос.
func (h *CurrentAdminHandler) Session(ctx context.Context, token string) (*admin.Session, error) {
	if token == "" {
		return nil, shared.ErrSessionNotFound
	}
	s, err := h.sessions.Get(ctx, token)
	if err != nil {
		return nil, shared.WrapStorageError("admin", "Session", err)
	}
	return s, nil
}

// Handle возвращает пользователя сессии.
func (h *CurrentAdminHandler) Handle(ctx context.Context, token string) (*admin.User, error) {
	s, err := h.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := h.users.FindByID(ctx, s.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, shared.WrapStorageError("admin", "CurrentAdmin", err)
	}
	return u, nil
}
