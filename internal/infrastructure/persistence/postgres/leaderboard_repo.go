package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
// Prizes, player data and the computed ranking are stored as JSONB.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

const leaderboardColumns = `id, bonus_id, bonus_name, bonus_logo, bonus_url, name, duration,
	start_date, end_date, prizes, prize_text, player_data, top_three, challengers,
	active, sort_order, created_at, updated_at`

// jsonColumns are the encoded JSONB values of one leaderboard.
type jsonColumns struct {
	prizes      []byte
	playerData  []byte
	topThree    []byte
	challengers []byte
}

func encodeJSONColumns(lb *leaderboard.Leaderboard) (jsonColumns, error) {
	var (
		cols jsonColumns
		err  error
	)
	if cols.prizes, err = json.Marshal(lb.Prizes); err != nil {
		return cols, fmt.Errorf("encode prizes: %w", err)
	}
	if cols.playerData, err = json.Marshal(nonNil(lb.PlayerData)); err != nil {
		return cols, fmt.Errorf("encode player data: %w", err)
	}
	if cols.topThree, err = json.Marshal(nonNil(lb.TopThree)); err != nil {
		return cols, fmt.Errorf("encode top three: %w", err)
	}
	if cols.challengers, err = json.Marshal(nonNil(lb.Challengers)); err != nil {
		return cols, fmt.Errorf("encode challengers: %w", err)
	}
	return cols, nil
}

func (c jsonColumns) decode(lb *leaderboard.Leaderboard) error {
	if err := json.Unmarshal(c.prizes, &lb.Prizes); err != nil {
		return fmt.Errorf("decode prizes: %w", err)
	}
	if err := json.Unmarshal(c.playerData, &lb.PlayerData); err != nil {
		return fmt.Errorf("decode player data: %w", err)
	}
	if err := json.Unmarshal(c.topThree, &lb.TopThree); err != nil {
		return fmt.Errorf("decode top three: %w", err)
	}
	if err := json.Unmarshal(c.challengers, &lb.Challengers); err != nil {
		return fmt.Errorf("decode challengers: %w", err)
	}
	return nil
}

// Create inserts a leaderboard and assigns its ID.
func (r *LeaderboardRepository) Create(ctx context.Context, lb *leaderboard.Leaderboard) error {
	if lb.ID == "" {
		lb.ID = uuid.NewString()
	}
	cols, err := encodeJSONColumns(lb)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO leaderboards (`+leaderboardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		lb.ID,
		lb.BonusID,
		lb.BonusName,
		lb.BonusLogo,
		lb.BonusURL,
		lb.Name,
		lb.Duration,
		lb.StartDate,
		lb.EndDate,
		cols.prizes,
		lb.PrizeText,
		cols.playerData,
		cols.topThree,
		cols.challengers,
		lb.Active,
		lb.Order,
		lb.CreatedAt,
		lb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert leaderboard: %w", err)
	}
	return nil
}

// Update overwrites every mutable column.
func (r *LeaderboardRepository) Update(ctx context.Context, lb *leaderboard.Leaderboard) error {
	cols, err := encodeJSONColumns(lb)
	if err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, `
		UPDATE leaderboards SET
			bonus_id = $2,
			bonus_name = $3,
			bonus_logo = $4,
			bonus_url = $5,
			name = $6,
			duration = $7,
			start_date = $8,
			end_date = $9,
			prizes = $10,
			prize_text = $11,
			player_data = $12,
			top_three = $13,
			challengers = $14,
			active = $15,
			sort_order = $16,
			updated_at = $17
		WHERE id = $1
	`,
		lb.ID,
		lb.BonusID,
		lb.BonusName,
		lb.BonusLogo,
		lb.BonusURL,
		lb.Name,
		lb.Duration,
		lb.StartDate,
		lb.EndDate,
		cols.prizes,
		lb.PrizeText,
		cols.playerData,
		cols.topThree,
		cols.challengers,
		lb.Active,
		lb.Order,
		lb.UpdatedAt,
	)
	if notFound(err) {
		return shared.ErrLeaderboardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLeaderboardNotFound
	}
	return nil
}

// Delete removes a leaderboard by ID.
func (r *LeaderboardRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM leaderboards WHERE id = $1`, id)
	if notFound(err) {
		return shared.ErrLeaderboardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete leaderboard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLeaderboardNotFound
	}
	return nil
}

// FindByID returns a leaderboard by ID.
func (r *LeaderboardRepository) FindByID(ctx context.Context, id string) (*leaderboard.Leaderboard, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+leaderboardColumns+` FROM leaderboards WHERE id = $1`, id)
	lb, err := scanLeaderboard(row)
	if notFound(err) {
		return nil, shared.ErrLeaderboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return lb, nil
}

// List returns leaderboards matching filter in display order.
func (r *LeaderboardRepository) List(ctx context.Context, filter leaderboard.Filter) ([]*leaderboard.Leaderboard, error) {
	var endingNotBefore *time.Time
	if !filter.EndingNotBefore.IsZero() {
		endingNotBefore = &filter.EndingNotBefore
	}

	rows, err := r.conn.Query(ctx, `
		SELECT `+leaderboardColumns+`
		FROM leaderboards
		WHERE (NOT $1::boolean OR active)
		  AND ($2::timestamptz IS NULL OR end_date >= $2)
		ORDER BY sort_order ASC, created_at DESC
	`, filter.ActiveOnly, endingNotBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboards: %w", err)
	}
	defer rows.Close()

	out := make([]*leaderboard.Leaderboard, 0)
	for rows.Next() {
		lb, err := scanLeaderboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}

// NextOrder returns max(order)+1 or 0 for an empty table.
func (r *LeaderboardRepository) NextOrder(ctx context.Context) (int, error) {
	var next int
	err := r.conn.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM leaderboards`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute leaderboard order: %w", err)
	}
	return next, nil
}

func scanLeaderboard(row pgx.Row) (*leaderboard.Leaderboard, error) {
	var (
		lb   leaderboard.Leaderboard
		cols jsonColumns
	)
	err := row.Scan(
		&lb.ID,
		&lb.BonusID,
		&lb.BonusName,
		&lb.BonusLogo,
		&lb.BonusURL,
		&lb.Name,
		&lb.Duration,
		&lb.StartDate,
		&lb.EndDate,
		&cols.prizes,
		&lb.PrizeText,
		&cols.playerData,
		&cols.topThree,
		&cols.challengers,
		&lb.Active,
		&lb.Order,
		&lb.CreatedAt,
		&lb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := cols.decode(&lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
