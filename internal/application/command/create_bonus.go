package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE BONUS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateBonusCommand contains the data for a new bonus card.
type CreateBonusCommand struct {
	Name        string
	Logo        string
	URL         string
	BonusCode   string
	BonusAmount string
	ExtraBonus  string
	Steps       []string

	// Active defaults to true when nil.
	Active *bool
}

// Validate checks that all required fields are present.
func (c CreateBonusCommand) Validate() error {
	for _, v := range []string{c.Name, c.Logo, c.URL, c.BonusCode, c.BonusAmount} {
		if strings.TrimSpace(v) == "" {
			return shared.ValidationError("bonus", "Create", "Missing required fields")
		}
	}
	return nil
}

// CreateBonusHandler handles the CreateBonusCommand.
type CreateBonusHandler struct {
	repo      bonus.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCreateBonusHandler creates a new CreateBonusHandler.
func NewCreateBonusHandler(repo bonus.Repository, publisher shared.EventPublisher, logger *slog.Logger) *CreateBonusHandler {
	return &CreateBonusHandler{
		repo:      repo,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// Handle executes the command. The new bonus goes to the end of the list.
func (h *CreateBonusHandler) Handle(ctx context.Context, cmd CreateBonusCommand) (*bonus.Bonus, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.NextOrder(ctx)
	if err != nil {
		return nil, shared.WrapStorageError("bonus", "Create", err)
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	b, err := bonus.New(bonus.Bonus{
		Name:        cmd.Name,
		Logo:        cmd.Logo,
		URL:         cmd.URL,
		BonusCode:   cmd.BonusCode,
		BonusAmount: cmd.BonusAmount,
		ExtraBonus:  cmd.ExtraBonus,
		Steps:       cmd.Steps,
		Active:      active,
		Order:       order,
	}, h.now())
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, b); err != nil {
		return nil, shared.WrapStorageError("bonus", "Create", err)
	}

	h.logger.Info("bonus created", "bonus_id", b.ID, "name", b.Name, "order", b.Order)
	publish(ctx, h.publisher, h.logger, shared.NewContentChangedEvent(shared.EventBonusCreated, b.ID, b.Name, b.Active))

	return b, nil
}
