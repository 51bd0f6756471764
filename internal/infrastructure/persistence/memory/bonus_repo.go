// Package memory provides in-process implementations of the domain repositories.
// They back STORAGE_DRIVER=memory for local development and the application tests.
// Every read and write copies the entity so callers never share state with the store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
)

// BonusRepository implements bonus.Repository.
type BonusRepository struct {
	mu    sync.RWMutex
	items map[string]*bonus.Bonus
}

// NewBonusRepository creates an empty repository.
func NewBonusRepository() *BonusRepository {
	return &BonusRepository{items: make(map[string]*bonus.Bonus)}
}

// Create stores a new bonus and assigns its ID.
func (r *BonusRepository) Create(_ context.Context, b *bonus.Bonus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.items[b.ID] = cloneBonus(b)
	return nil
}

// Update replaces an existing bonus.
func (r *BonusRepository) Update(_ context.Context, b *bonus.Bonus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[b.ID]; !ok {
		return shared.ErrBonusNotFound
	}
	r.items[b.ID] = cloneBonus(b)
	return nil
}

// Delete removes a bonus.
func (r *BonusRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return shared.ErrBonusNotFound
	}
	delete(r.items, id)
	return nil
}

// FindByID returns a bonus by ID.
func (r *BonusRepository) FindByID(_ context.Context, id string) (*bonus.Bonus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, shared.ErrBonusNotFound
	}
	return cloneBonus(b), nil
}

// List returns bonuses in display order.
func (r *BonusRepository) List(_ context.Context, active *bool) ([]*bonus.Bonus, error) {
	r.mu.RLock()
	out := make([]*bonus.Bonus, 0, len(r.items))
	for _, b := range r.items {
		if active != nil && b.Active != *active {
			continue
		}
		out = append(out, cloneBonus(b))
	}
	r.mu.RUnlock()

	bonus.SortForDisplay(out)
	return out, nil
}

// NextOrder returns max(order)+1 or 0.
func (r *BonusRepository) NextOrder(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return 0, nil
	}
	maxOrder := 0
	for _, b := range r.items {
		maxOrder = max(maxOrder, b.Order)
	}
	return maxOrder + 1, nil
}

func cloneBonus(b *bonus.Bonus) *bonus.Bonus {
	c := *b
	c.Steps = slices.Clone(b.Steps)
	return &c
}
