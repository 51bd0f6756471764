package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE BONUS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateBonusCommand is a partial update. nil fields are left unchanged.
type UpdateBonusCommand struct {
	ID    string
	Patch bonus.Patch
}

// UpdateBonusHandler handles the UpdateBonusCommand.
type UpdateBonusHandler struct {
	repo      bonus.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewUpdateBonusHandler creates a new UpdateBonusHandler.
func NewUpdateBonusHandler(repo bonus.Repository, publisher shared.EventPublisher, logger *slog.Logger) *UpdateBonusHandler {
	return &UpdateBonusHandler{
		repo:      repo,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// Handle executes the command.
func (h *UpdateBonusHandler) Handle(ctx context.Context, cmd UpdateBonusCommand) (*bonus.Bonus, error) {
	if cmd.ID == "" {
		return nil, shared.ErrBonusNotFound
	}

	b, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, shared.WrapStorageError("bonus", "Update", err)
	}

	if err := b.Apply(cmd.Patch, h.now()); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, b); err != nil {
		return nil, shared.WrapStorageError("bonus", "Update", err)
	}

	h.logger.Info("bonus updated", "bonus_id", b.ID)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventBonusUpdated, b.ID, b.Name, b.Active))

	return b, nil
}
