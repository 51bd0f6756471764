package eventhandler

import (
	"context"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COUNTER BUMPED HANDLER
// Сбрасывает 30-секундный кеш счётчика. Нужен, когда событие пришло
// с другого инстанса через Redis: свой кеш сервис сбрасывает сам.
// ═══════════════════════════════════════════════════════════════════════════

// CounterCache - кеш чтения счётчика.
type CounterCache interface {
	Forget(latest int64)
}

// OnCounterBumpedHandler сбрасывает кеш счётчика.
type OnCounterBumpedHandler struct {
	cache  CounterCache
	logger *slog.Logger
}

// NewOnCounterBumpedHandler создаёт обработчик.
func NewOnCounterBumpedHandler(cache CounterCache, logger *slog.Logger) *OnCounterBumpedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCounterBumpedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_counter_bumped"),
	}
}

// Handle сбрасывает кеш. Событие из Redis приходит как payload после
// JSON, поэтому total_joined может оказаться float64.
func (h *OnCounterBumpedHandler) Handle(_ context.Context, event shared.Event) error {
	if event.EventType() != shared.EventCounterBumped {
		return nil
	}

	var total int64
	switch v := event.Payload()["total_joined"].(type) {
	case int64:
		total = v
	case float64:
		total = int64(v)
	default:
		h.logger.Warn("counter event without total", "aggregate_id", event.AggregateID())
		return nil
	}

	h.cache.Forget(total)
	return nil
}
