package query

import (
	"context"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// GetBonusHandler возвращает бонус по ID.
type GetBonusHandler struct {
	repo bonus.Repository
}

// NewGetBonusHandler создаёт новый обработчик.
func NewGetBonusHandler(repo bonus.Repository) *GetBonusHandler {
	return &GetBonusHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *GetBonusHandler) Handle(ctx context.Context, id string) (*bonus.Bonus, error) {
	if id == "" {
		return nil, shared.ErrBonusNotFound
	}
	b, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.WrapStorageError("bonus", "Get", err)
	}
	return b, nil
}
