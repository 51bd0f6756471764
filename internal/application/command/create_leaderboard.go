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
// CREATE LEADERBOARD COMMAND
// Ranking is computed once here from the uploaded player data and stored
// with the record. Nothing recomputes it later.
// ══════════════════════════════════════════════════════════════════════════════

// CreateLeaderboardCommand contains the data for a new leaderboard.
type CreateLeaderboardCommand struct {
	BonusID  string
	Name     string
	Duration int

	// StartDate is the raw form value. Anything without a "T" starts now.
	StartDate string

	// Prizes defaults to zero prizes for the podium when nil.
	Prizes leaderboard.PrizeTable

	PrizeText  string
	PlayerData []leaderboard.PlayerRecord
	Active     *bool
}

// Validate checks that all required fields are present.
func (c CreateLeaderboardCommand) Validate() error {
	if strings.TrimSpace(c.BonusID) == "" ||
		strings.TrimSpace(c.Name) == "" ||
		c.Duration == 0 ||
		strings.TrimSpace(c.StartDate) == "" {
		return shared.ErrMissingFields
	}
	if !leaderboard.ValidDuration(c.Duration) {
		return shared.ErrInvalidDuration
	}
	return nil
}

// CreateLeaderboardHandler handles the CreateLeaderboardCommand.
type CreateLeaderboardHandler struct {
	repo      leaderboard.Repository
	bonuses   bonus.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCreateLeaderboardHandler creates a new CreateLeaderboardHandler.
func NewCreateLeaderboardHandler(
	repo leaderboard.Repository,
	bonuses bonus.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *CreateLeaderboardHandler {
	return &CreateLeaderboardHandler{
		repo:      repo,
		bonuses:   bonuses,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// Handle executes the command.
func (h *CreateLeaderboardHandler) Handle(ctx context.Context, cmd CreateLeaderboardCommand) (*leaderboard.Leaderboard, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	b, err := h.bonuses.FindByID(ctx, cmd.BonusID)
	if err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Create", err)
	}

	now := h.now()
	start, err := leaderboard.ParseStartDate(cmd.StartDate, now)
	if err != nil {
		return nil, err
	}

	order, err := h.repo.NextOrder(ctx)
	if err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Create", err)
	}

	lb, err := leaderboard.New(leaderboard.NewParams{
		Bonus:      bonusRef(b),
		Name:       cmd.Name,
		Duration:   cmd.Duration,
		StartDate:  start,
		Prizes:     cmd.Prizes,
		PrizeText:  cmd.PrizeText,
		PlayerData: cmd.PlayerData,
		Active:     cmd.Active,
		Order:      order,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, lb); err != nil {
		return nil, shared.WrapStorageError("leaderboard", "Create", err)
	}

	h.logger.Info("leaderboard created",
		"leaderboard_id", lb.ID,
		"bonus_id", lb.BonusID,
		"players", len(lb.PlayerData),
		"end_date", lb.EndDate.Format(time.RFC3339),
	)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventLeaderboardCreated, lb.ID, lb.Name, lb.Active))

	return lb, nil
}

func bonusRef(b *bonus.Bonus) leaderboard.BonusRef {
	return leaderboard.BonusRef{ID: b.ID, Name: b.Name, Logo: b.Logo, URL: b.URL}
}
