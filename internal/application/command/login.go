package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN / LOGOUT
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSessionTTL is how long an admin session stays valid.
const DefaultSessionTTL = 24 * time.Hour

const sessionTokenLength = 32

// dummyHash is compared against when the e-mail is unknown, so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("promo-hub-dummy-password"), bcrypt.DefaultCost)

// LoginCommand contains admin credentials.
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResult contains the issued session.
type LoginResult struct {
	Session *admin.Session
	User    *admin.User
}

// LoginHandler checks credentials and opens a session.
type LoginHandler struct {
	users    admin.UserRepository
	sessions admin.SessionStore
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(users admin.UserRepository, sessions admin.SessionStore, ttl time.Duration, logger *slog.Logger) *LoginHandler {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &LoginHandler{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		logger:   loggerOrDefault(logger),
		now:      time.Now,
	}
}

// Handle executes the login.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, shared.ValidationError("admin", "Login", "email and password are required")
	}

	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	user, err := h.users.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(cmd.Password))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, shared.WrapStorageError("admin", "Login", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)) != nil {
		h.logger.Warn("admin login failed", "email", email.String())
		return nil, shared.ErrInvalidCredentials
	}

	token, err := gonanoid.New(sessionTokenLength)
	if err != nil {
		return nil, shared.WrapError("admin", "Login", shared.ErrServiceUnavailable, "cannot issue session", err)
	}

	now := h.now()
	session := &admin.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email.String(),
		Role:      user.Role,
		ExpiresAt: now.Add(h.ttl),
	}
	if err := h.sessions.Save(ctx, session, h.ttl); err != nil {
		return nil, shared.WrapStorageError("admin", "Login", err)
	}

	if err := h.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		h.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	h.logger.Info("admin logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Session: session, User: user}, nil
}

// LogoutHandler closes a session.
type LogoutHandler struct {
	sessions admin.SessionStore
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(sessions admin.SessionStore) *LogoutHandler {
	return &LogoutHandler{sessions: sessions}
}

// Handle deletes the session. Unknown tokens are not an error.
func (h *LogoutHandler) Handle(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := h.sessions.Delete(ctx, token); err != nil && !shared.IsUnauthorized(err) {
		return shared.WrapStorageError("admin", "Logout", err)
	}
	return nil
}
