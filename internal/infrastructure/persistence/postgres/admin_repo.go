package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements admin.UserRepository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, email, password_hash, name, role, created_at, last_login`

// Create inserts a user. Duplicate e-mails yield shared.ErrUserAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *admin.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO admin_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		u.ID,
		u.Email.String(),
		u.PasswordHash,
		u.Name,
		string(u.Role),
		u.CreatedAt,
		u.LastLogin,
	)
	if IsUniqueViolation(err) {
		return shared.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by normalized e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email shared.Email) (*admin.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE email = $1`, email.String())
	return r.scan(row)
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*admin.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE id = $1`, id)
	return r.scan(row)
}

// TouchLastLogin stamps the last successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `UPDATE admin_users SET last_login = $2 WHERE id = $1`, id, at)
	if notFound(err) {
		return shared.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scan(row pgx.Row) (*admin.User, error) {
	var (
		u     admin.User
		email string
		role  string
	)
	err := row.Scan(&u.ID, &email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.LastLogin)
	if notFound(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	u.Email = shared.Email(email)
	u.Role = admin.Role(role)
	return &u, nil
}
