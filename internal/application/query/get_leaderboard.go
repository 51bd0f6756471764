package query

import (
	"context"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// GetLeaderboardHandler возвращает лидерборд по ID вместе с сырыми данными.
type GetLeaderboardHandler struct {
	repo leaderboard.Repository
}

// NewGetLeaderboardHandler создаёт новый обработчик.
func NewGetLeaderboardHandler(repo leaderboard.Repository) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, id string) (*leaderboard.Leaderboard, error) {
	if id == "" {
		return nil, shared.ErrLeaderboardNotFound
	}
	lb, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Get", err)
	}
	return lb, nil
}
