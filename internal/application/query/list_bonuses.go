package query

import (
	"context"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST BONUSES QUERY
// Админская выдача: все бонусы или только активные.
// ══════════════════════════════════════════════════════════════════════════════

// ListBonusesQuery содержит параметры выборки.
type ListBonusesQuery struct {
	// ActiveOnly - только active = true (?active=true).
	ActiveOnly bool
}

// ListBonusesHandler обрабатывает ListBonusesQuery.
type ListBonusesHandler struct {
	repo bonus.Repository
}

// NewListBonusesHandler создаёт новый обработчик.
func NewListBonusesHandler(repo bonus.Repository) *ListBonusesHandler {
	return &ListBonusesHandler{repo: repo}
}

// Handle выполняет запрос. Порядок: order по возрастанию, затем новые первыми.
func (h *ListBonusesHandler) Handle(ctx context.Context, q ListBonusesQuery) ([]*bonus.Bonus, error) {
	var active *bool
	if q.ActiveOnly {
		t := true
		active = &t
	}
	items, err := h.repo.List(ctx, active)
	if err != nil {
		return nil, shared.WrapStorageError("bonus", "List", err)
	}
	return items, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST PUBLIC BONUSES QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListPublicBonusesHandler отдаёт активные бонусы для публичного сайта.
type ListPublicBonusesHandler struct {
	repo   bonus.Repository
	cache  ListingCache
	logger *slog.Logger
}

// NewListPublicBonusesHandler создаёт новый обработчик. cache может быть nil.
func NewListPublicBonusesHandler(repo bonus.Repository, cache ListingCache, logger *slog.Logger) *ListPublicBonusesHandler {
	return &ListPublicBonusesHandler{repo: repo, cache: cache, logger: loggerOrDefault(logger)}
}

// Handle выполняет запрос.
func (h *ListPublicBonusesHandler) Handle(ctx context.Context) ([]*bonus.Bonus, error) {
	return cached(ctx, h.cache, h.logger, PublicBonusesKey, func() ([]*bonus.Bonus, error) {
		active := true
		items, err := h.repo.List(ctx, &active)
		if err != nil {
			return nil, shared.WrapStorageError("bonus", "ListPublic", err)
		}
		return items, nil
	})
}
