package postgres

import (
	"context"
	"fmt"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// BONUS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BonusRepository implements bonus.Repository for PostgreSQL.
type BonusRepository struct {
	conn *Connection
}

// NewBonusRepository creates a new BonusRepository.
func NewBonusRepository(conn *Connection) *BonusRepository {
	return &BonusRepository{conn: conn}
}

const bonusColumns = `id, name, logo, url, bonus_code, bonus_amount, extra_bonus, steps, active, sort_order, created_at, updated_at`

// Create inserts a bonus and assigns its ID.
func (r *BonusRepository) Create(ctx context.Context, b *bonus.Bonus) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO bonuses (`+bonusColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		b.ID,
		b.Name,
		b.Logo,
		b.URL,
		b.BonusCode,
		b.BonusAmount,
		b.ExtraBonus,
		nonNil(b.Steps),
		b.Active,
		b.Order,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bonus: %w", err)
	}
	return nil
}

// Update overwrites every mutable column.
func (r *BonusRepository) Update(ctx context.Context, b *bonus.Bonus) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE bonuses SET
			name = $2,
			logo = $3,
			url = $4,
			bonus_code = $5,
			bonus_amount = $6,
			extra_bonus = $7,
			steps = $8,
			active = $9,
			sort_order = $10,
			updated_at = $11
		WHERE id = $1
	`,
		b.ID,
		b.Name,
		b.Logo,
		b.URL,
		b.BonusCode,
		b.BonusAmount,
		b.ExtraBonus,
		nonNil(b.Steps),
		b.Active,
		b.Order,
		b.UpdatedAt,
	)
	if notFound(err) {
		return shared.ErrBonusNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrBonusNotFound
	}
	return nil
}

// Delete removes a bonus by ID.
func (r *BonusRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM bonuses WHERE id = $1`, id)
	if notFound(err) {
		return shared.ErrBonusNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrBonusNotFound
	}
	return nil
}

// FindByID returns a bonus by ID.
func (r *BonusRepository) FindByID(ctx context.Context, id string) (*bonus.Bonus, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+bonusColumns+` FROM bonuses WHERE id = $1`, id)
	b, err := scanBonus(row)
	if notFound(err) {
		return nil, shared.ErrBonusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus: %w", err)
	}
	return b, nil
}

// List returns bonuses in display order. A nil active means all of them.
func (r *BonusRepository) List(ctx context.Context, active *bool) ([]*bonus.Bonus, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+bonusColumns+`
		FROM bonuses
		WHERE ($1::boolean IS NULL OR active = $1)
		ORDER BY sort_order ASC, created_at DESC
	`, active)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	out := make([]*bonus.Bonus, 0)
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// NextOrder returns max(order)+1 or 0 for an empty table.
func (r *BonusRepository) NextOrder(ctx context.Context) (int, error) {
	var next int
	err := r.conn.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM bonuses`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute bonus order: %w", err)
	}
	return next, nil
}

func scanBonus(row pgx.Row) (*bonus.Bonus, error) {
	var b bonus.Bonus
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Logo,
		&b.URL,
		&b.BonusCode,
		&b.BonusAmount,
		&b.ExtraBonus,
		&b.Steps,
		&b.Active,
		&b.Order,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
