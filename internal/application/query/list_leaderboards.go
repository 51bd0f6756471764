package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST LEADERBOARDS QUERY
// Админская выдача: все лидерборды без фильтров, с сырыми данными.
// ══════════════════════════════════════════════════════════════════════════════

// ListLeaderboardsHandler обрабатывает админский список.
type ListLeaderboardsHandler struct {
	repo leaderboard.Repository
}

// NewListLeaderboardsHandler создаёт новый обработчик.
func NewListLeaderboardsHandler(repo leaderboard.Repository) *ListLeaderboardsHandler {
	return &ListLeaderboardsHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *ListLeaderboardsHandler) Handle(ctx context.Context) ([]*leaderboard.Leaderboard, error) {
	items, err := h.repo.List(ctx, leaderboard.Filter{})
	if err != nil {
		return nil, shared.WrapStorageError("leaderboard", "List", err)
	}
	return items, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST PUBLIC LEADERBOARDS QUERY
// Только активные и не закончившиеся. Фильтр по датам применяется здесь,
// при чтении, фоновых пересчётов нет.
// ══════════════════════════════════════════════════════════════════════════════

// ListPublicLeaderboardsHandler отдаёт лидерборды для публичного сайта.
type ListPublicLeaderboardsHandler struct {
	repo   leaderboard.Repository
	cache  ListingCache
	logger *slog.Logger
	limit  int
	now    func() time.Time
}

// NewListPublicLeaderboardsHandler создаёт новый обработчик. cache может быть nil.
func NewListPublicLeaderboardsHandler(repo leaderboard.Repository, cache ListingCache, logger *slog.Logger) *ListPublicLeaderboardsHandler {
	return &ListPublicLeaderboardsHandler{
		repo:   repo,
		cache:  cache,
		logger: loggerOrDefault(logger),
		limit:  leaderboard.PublicChallengersLimit,
		now:    time.Now,
	}
}

// Handle выполняет запрос. Претенденты обрезаются до 10, playerData не отдаётся.
func (h *ListPublicLeaderboardsHandler) Handle(ctx context.Context) ([]*leaderboard.Leaderboard, error) {
	return cached(ctx, h.cache, h.logger, PublicLeaderboardsKey, func() ([]*leaderboard.Leaderboard, error) {
		items, err := h.repo.List(ctx, leaderboard.Filter{
			ActiveOnly:      true,
			EndingNotBefore: h.now(),
		})
		if err != nil {
			return nil, shared.WrapStorageError("leaderboard", "ListPublic", err)
		}

		out := make([]*leaderboard.Leaderboard, 0, len(items))
		for _, lb := range items {
			out = append(out, lb.PublicView(h.limit))
		}
		return out, nil
	})
}
