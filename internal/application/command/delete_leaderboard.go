package command

import (
	"context"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// DeleteLeaderboardHandler removes a leaderboard.
type DeleteLeaderboardHandler struct {
	repo      leaderboard.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewDeleteLeaderboardHandler creates a new DeleteLeaderboardHandler.
func NewDeleteLeaderboardHandler(repo leaderboard.Repository, publisher shared.EventPublisher, logger *slog.Logger) *DeleteLeaderboardHandler {
	return &DeleteLeaderboardHandler{repo: repo, publisher: publisher, logger: loggerOrDefault(logger)}
}

// Handle deletes the leaderboard with the given id.
func (h *DeleteLeaderboardHandler) Handle(ctx context.Context, id string) error {
	if id == "" {
		return shared.ErrLeaderboardNotFound
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return shared.WrapStorageError("leaderboard", "Delete", err)
	}

	h.logger.Info("leaderboard deleted", "leaderboard_id", id)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventLeaderboardDeleted, id, "", false))
	return nil
}
