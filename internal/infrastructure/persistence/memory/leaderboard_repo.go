package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
)

// LeaderboardRepository implements leaderboard.Repository.
type LeaderboardRepository struct {
	mu    sync.RWMutex
	items map[string]*leaderboard.Leaderboard
}

// NewLeaderboardRepository creates an empty repository.
func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{items: make(map[string]*leaderboard.Leaderboard)}
}

// Create stores a new leaderboard and assigns its ID.
func (r *LeaderboardRepository) Create(_ context.Context, lb *leaderboard.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lb.ID == "" {
		lb.ID = uuid.NewString()
	}
	r.items[lb.ID] = cloneLeaderboard(lb)
	return nil
}

// Update replaces an existing leaderboard.
func (r *LeaderboardRepository) Update(_ context.Context, lb *leaderboard.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[lb.ID]; !ok {
		return shared.ErrLeaderboardNotFound
	}
	r.items[lb.ID] = cloneLeaderboard(lb)
	return nil
}

// Delete removes a leaderboard.
func (r *LeaderboardRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return shared.ErrLeaderboardNotFound
	}
	delete(r.items, id)
	return nil
}

// FindByID returns a leaderboard by ID.
func (r *LeaderboardRepository) FindByID(_ context.Context, id string) (*leaderboard.Leaderboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lb, ok := r.items[id]
	if !ok {
		return nil, shared.ErrLeaderboardNotFound
	}
	return cloneLeaderboard(lb), nil
}

// List returns the leaderboards matching filter in display order.
func (r *LeaderboardRepository) List(_ context.Context, filter leaderboard.Filter) ([]*leaderboard.Leaderboard, error) {
	r.mu.RLock()
	out := make([]*leaderboard.Leaderboard, 0, len(r.items))
	for _, lb := range r.items {
		if filter.Matches(lb) {
			out = append(out, cloneLeaderboard(lb))
		}
	}
	r.mu.RUnlock()

	leaderboard.SortForDisplay(out)
	return out, nil
}

// NextOrder returns max(order)+1 or 0.
func (r *LeaderboardRepository) NextOrder(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return 0, nil
	}
	maxOrder := 0
	for _, lb := range r.items {
		maxOrder = max(maxOrder, lb.Order)
	}
	return maxOrder + 1, nil
}

func cloneLeaderboard(lb *leaderboard.Leaderboard) *leaderboard.Leaderboard {
	c := *lb
	c.Prizes = maps.Clone(lb.Prizes)
	c.TopThree = slices.Clone(lb.TopThree)
	c.Challengers = slices.Clone(lb.Challengers)
	if lb.PlayerData != nil {
		c.PlayerData = make([]leaderboard.PlayerRecord, len(lb.PlayerData))
		for i, p := range lb.PlayerData {
			p.Extra = maps.Clone(p.Extra)
			c.PlayerData[i] = p
		}
	}
	return &c
}
