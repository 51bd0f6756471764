// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они не меняют контент,
// а лишь поддерживают в актуальном состоянии кеши чтения.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/application/query"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CONTENT CHANGED HANDLER
// Сбрасывает кеш публичной выдачи после любой записи админом.
// ═══════════════════════════════════════════════════════════════════════════

// ListingInvalidator удаляет ключи кеша публичных выдач.
type ListingInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// OnContentChangedHandler сбрасывает кеш выдачи после изменения бонуса
// или лидерборда.
type OnContentChangedHandler struct {
	cache  ListingInvalidator
	logger *slog.Logger
}

// NewOnContentChangedHandler создаёт обработчик.
func NewOnContentChangedHandler(cache ListingInvalidator, logger *slog.Logger) *OnContentChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnContentChangedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_content_changed"),
	}
}

// EventTypes - события, на которые подписывается обработчик.
func (h *OnContentChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventBonusCreated,
		shared.EventBonusUpdated,
		shared.EventBonusDeleted,
		shared.EventLeaderboardCreated,
		shared.EventLeaderboardUpdated,
		shared.EventLeaderboardDeleted,
	}
}

// Handle удаляет ключ той выдачи, к которой относится событие.
// События другого типа игнорируются.
func (h *OnContentChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	key, ok := listingKeyFor(event.EventType())
	if !ok {
		return nil
	}

	if err := h.cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}

	h.logger.Debug("listing cache invalidated",
		"key", key,
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
	)
	return nil
}

func listingKeyFor(t shared.EventType) (string, bool) {
	switch t {
	case shared.EventBonusCreated, shared.EventBonusUpdated, shared.EventBonusDeleted:
		return query.PublicBonusesKey, true
	case shared.EventLeaderboardCreated, shared.EventLeaderboardUpdated, shared.EventLeaderboardDeleted:
		return query.PublicLeaderboardsKey, true
	}
	return "", false
}
