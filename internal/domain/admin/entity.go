// Package admin содержит учётные записи администраторов и их сессии.
package admin

import (
	"context"
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// MinPasswordLength - минимальная длина пароля.
const MinPasswordLength = 6

// Role - уровень доступа администратора.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsValid проверяет, что роль известна.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User - администратор сайта.
type User struct {
	ID           string       `json:"id"`
	Email        shared.Email `json:"email"`
	PasswordHash string       `json:"-"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastLogin    *time.Time   `json:"lastLogin,omitempty"`
}

// NewUser валидирует данные. Хеш пароля считает application слой.
func NewUser(email, name string, role Role, passwordHash string, now time.Time) (*User, error) {
	addr, err := shared.NewEmail(email)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleAdmin
	}
	if !role.IsValid() {
		return nil, shared.ErrInvalidRole
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationError("admin", "Validate", "name is required")
	}
	if passwordHash == "" {
		return nil, shared.ValidationError("admin", "Validate", "password is required")
	}

	return &User{
		Email:        addr,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

// ValidatePassword проверяет пароль до хеширования.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.ErrPasswordTooShort
	}
	return nil
}

// Session - выданный после логина токен.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserRepository - хранилище администраторов.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email shared.Email) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionStore хранит сессии с TTL.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
