package command

import (
	"context"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// DeleteBonusHandler removes a bonus card.
// Leaderboards keep their copied bonus snapshot.
type DeleteBonusHandler struct {
	repo      bonus.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewDeleteBonusHandler creates a new DeleteBonusHandler.
func NewDeleteBonusHandler(repo bonus.Repository, publisher shared.EventPublisher, logger *slog.Logger) *DeleteBonusHandler {
	return &DeleteBonusHandler{repo: repo, publisher: publisher, logger: loggerOrDefault(logger)}
}

// Handle deletes the bonus with the given id.
func (h *DeleteBonusHandler) Handle(ctx context.Context, id string) error {
	if id == "" {
		return shared.ErrBonusNotFound
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return shared.WrapStorageError("bonus", "Delete", err)
	}

	h.logger.Info("bonus deleted", "bonus_id", id)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventBonusDeleted, id, "", false))
	return nil
}
