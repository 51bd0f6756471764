// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"log/slog"
)

// Ключи кеша публичных выдач. Их же сбрасывает eventhandler при записи.
const (
	PublicBonusesKey      = "public:bonuses"
	PublicLeaderboardsKey = "public:leaderboards"
)

// ListingCache - кеш готовых публичных выдач (Redis в проде).
// Кеш - только ускорение: любые его ошибки логируются и игнорируются.
type ListingCache interface {
	GetListing(ctx context.Context, key string, dest any) (bool, error)
	SetListing(ctx context.Context, key string, value any) error
}

// cached отдаёт значение из кеша или загружает его и кладёт в кеш.
func cached[T any](ctx context.Context, cache ListingCache, logger *slog.Logger, key string, load func() (T, error)) (T, error) {
	if cache != nil {
		var hit T
		ok, err := cache.GetListing(ctx, key, &hit)
		if err != nil {
			logger.Warn("listing cache read failed", "key", key, "error", err)
		} else if ok {
			return hit, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if err := cache.SetListing(ctx, key, v); err != nil {
			logger.Warn("listing cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
