package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// CounterStore implements counter.Store on the single-row counters table.
// Increments are one UPSERT statement, so concurrent requests never lose updates.
type CounterStore struct {
	conn *Connection
}

// NewCounterStore creates a new CounterStore.
func NewCounterStore(conn *Connection) *CounterStore {
	return &CounterStore{conn: conn}
}

// Find returns the counter row.
func (s *CounterStore) Find(ctx context.Context) (*counter.Counter, error) {
	var c counter.Counter
	err := s.conn.QueryRow(ctx, `SELECT total_joined, last_updated FROM counters WHERE id = 1`).
		Scan(&c.TotalJoined, &c.LastUpdated)
	if IsNoRows(err) {
		return nil, shared.ErrCounterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get counter: %w", err)
	}
	return &c, nil
}

// FindOrCreate returns the counter, inserting it with seed when missing.
func (s *CounterStore) FindOrCreate(ctx context.Context, seed int64, now time.Time) (*counter.Counter, error) {
	// Both branches read the same snapshot, so exactly one of them yields a row.
	var c counter.Counter
	err := s.conn.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO counters (id, total_joined, last_updated)
			VALUES (1, $1, $2)
			ON CONFLICT (id) DO NOTHING
			RETURNING total_joined, last_updated
		)
		SELECT total_joined, last_updated FROM inserted
		UNION ALL
		SELECT total_joined, last_updated FROM counters WHERE id = 1
		LIMIT 1
	`, seed, now).Scan(&c.TotalJoined, &c.LastUpdated)
	if IsNoRows(err) {
		// A concurrent first insert committed after our snapshot was taken.
		return s.Find(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create counter: %w", err)
	}
	return &c, nil
}

// Add atomically increments by delta, or creates the row at initial.
func (s *CounterStore) Add(ctx context.Context, delta, initial int64, now time.Time) (*counter.Counter, error) {
	var c counter.Counter
	err := s.conn.QueryRow(ctx, `
		INSERT INTO counters (id, total_joined, last_updated)
		VALUES (1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			total_joined = counters.total_joined + $1,
			last_updated = EXCLUDED.last_updated
		RETURNING total_joined, last_updated
	`, delta, initial, now).Scan(&c.TotalJoined, &c.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}
	return &c, nil
}
