package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// CreateAdminCommand registers a dashboard user. Used by promoctl only.
type CreateAdminCommand struct {
	Email    string
	Password string
	Name     string
	Role     admin.Role
}

// CreateAdminHandler handles the CreateAdminCommand.
type CreateAdminHandler struct {
	users  admin.UserRepository
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

// NewCreateAdminHandler creates a new CreateAdminHandler.
func NewCreateAdminHandler(users admin.UserRepository, logger *slog.Logger) *CreateAdminHandler {
	return &CreateAdminHandler{
		users:  users,
		logger: loggerOrDefault(logger),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Handle executes the command.
func (h *CreateAdminHandler) Handle(ctx context.Context, cmd CreateAdminCommand) (*admin.User, error) {
	if err := admin.ValidatePassword(cmd.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.cost)
	if err != nil {
		return nil, shared.WrapError("admin", "Create", shared.ErrInvalidInput, "cannot hash password", err)
	}

	user, err := admin.NewUser(cmd.Email, cmd.Name, cmd.Role, string(hash), h.now())
	if err != nil {
		return nil, err
	}

	if err := h.users.Create(ctx, user); err != nil {
		return nil, shared.WrapStorageError("admin", "Create", err)
	}

	h.logger.Info("admin user created", "user_id", user.ID, "email", user.Email.String(), "role", user.Role)
	return user, nil
}
