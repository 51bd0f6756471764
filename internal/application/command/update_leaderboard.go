package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE LEADERBOARD COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLeaderboardCommand is a partial update. nil fields are left unchanged.
type UpdateLeaderboardCommand struct {
	ID string

	Name      *string
	Duration  *int
	StartDate *string
	Prizes    leaderboard.PrizeTable
	PrizeText *string
	Active    *bool
	Order     *int

	// BonusID re-attaches the leaderboard and refreshes the bonus snapshot.
	BonusID *string

	// PlayerData re-runs aggregation when non-nil, even if empty.
	PlayerData *[]leaderboard.PlayerRecord
}

// Validate checks field values that are present.
func (c UpdateLeaderboardCommand) Validate() error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return shared.ValidationError("leaderboard", "Update", "name cannot be empty")
	}
	if c.Duration != nil && !leaderboard.ValidDuration(*c.Duration) {
		return shared.ErrInvalidDuration
	}
	if c.Order != nil && *c.Order < 0 {
		return shared.ValidationError("leaderboard", "Update", "order cannot be negative")
	}
	if c.Prizes != nil {
		if err := c.Prizes.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateLeaderboardHandler handles the UpdateLeaderboardCommand.
type UpdateLeaderboardHandler struct {
	repo      leaderboard.Repository
	bonuses   bonus.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewUpdateLeaderboardHandler creates a new UpdateLeaderboardHandler.
func NewUpdateLeaderboardHandler(
	repo leaderboard.Repository,
	bonuses bonus.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *UpdateLeaderboardHandler {
	return &UpdateLeaderboardHandler{
		repo:      repo,
		bonuses:   bonuses,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// Handle executes the command.
func (h *UpdateLeaderboardHandler) Handle(ctx context.Context, cmd UpdateLeaderboardCommand) (*leaderboard.Leaderboard, error) {
	if cmd.ID == "" {
		return nil, shared.ErrLeaderboardNotFound
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lb, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Update", err)
	}

	if cmd.Name != nil {
		lb.Name = strings.TrimSpace(*cmd.Name)
	}

	// endDate always follows the effective start and duration.
	if cmd.Duration != nil || cmd.StartDate != nil {
		start, duration := lb.StartDate, lb.Duration
		if cmd.StartDate != nil {
			if start, err = leaderboard.ParseDate(*cmd.StartDate); err != nil {
				return nil, err
			}
		}
		if cmd.Duration != nil {
			duration = *cmd.Duration
		}
		if err := lb.Reschedule(start, duration); err != nil {
			return nil, err
		}
	}

	if cmd.Prizes != nil {
		lb.Prizes = cmd.Prizes
	}
	if cmd.PrizeText != nil {
		lb.PrizeText = *cmd.PrizeText
	}
	if cmd.Active != nil {
		lb.Active = *cmd.Active
	}
	if cmd.Order != nil {
		lb.Order = *cmd.Order
	}

	if cmd.BonusID != nil && *cmd.BonusID != lb.BonusID {
		b, err := h.bonuses.FindByID(ctx, *cmd.BonusID)
		if err != nil {
			return nil, shared.WrapStorageError("leaderboard", "Update", err)
		}
		lb.AttachBonus(bonusRef(b))
	}

	if cmd.PlayerData != nil {
		if err := lb.ApplyPlayerData(*cmd.PlayerData); err != nil {
			return nil, err
		}
	}

	lb.UpdatedAt = h.now()
	if err := h.repo.Update(ctx, lb); err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Update", err)
	}

	h.logger.Info("leaderboard updated", "leaderboard_id", lb.ID, "reaggregated", cmd.PlayerData != nil)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventLeaderboardUpdated, lb.ID, lb.Name, lb.Active))

	return lb, nil
}
