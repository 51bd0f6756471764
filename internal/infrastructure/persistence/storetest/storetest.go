// Package storetest holds behaviour checks shared by every storage driver.
// Each function expects an empty store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base is truncated to milliseconds so drivers with coarser clocks compare equal.
var base = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newBonus(t *testing.T, name string, order int, active bool, created time.Time) *bonus.Bonus {
	t.Helper()
	b, err := bonus.New(bonus.Bonus{
		Name:        name,
		Logo:        "/logos/" + name + ".png",
		URL:         "https://" + name + ".example",
		BonusCode:   "code",
		BonusAmount: "$5",
		ExtraBonus:  "+ rakeback",
		Steps:       []string{"Sign up", "Enter code"},
		Active:      active,
		Order:       order,
	}, created)
	require.NoError(t, err)
	return b
}

// BonusRepository checks CRUD, ordering and the active filter.
func BonusRepository(t *testing.T, repo bonus.Repository) {
	ctx := context.Background()

	next, err := repo.NextOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	a := newBonus(t, "alpha", 1, true, base)
	b := newBonus(t, "bravo", 0, false, base.Add(time.Minute))
	c := newBonus(t, "charlie", 1, true, base.Add(2*time.Minute))
	for _, x := range []*bonus.Bonus{a, b, c} {
		require.NoError(t, repo.Create(ctx, x))
		require.NotEmpty(t, x.ID)
	}

	next, err = repo.NextOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, "CODE", got.BonusCode)
	assert.Equal(t, []string{"Sign up", "Enter code"}, got.Steps)
	assert.True(t, got.CreatedAt.Equal(base))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "charlie", "alpha"}, bonusNames(all))

	active := true
	live, err := repo.List(ctx, &active)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha"}, bonusNames(live))

	got.Name = "alpha prime"
	got.Active = false
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha prime", again.Name)
	assert.False(t, again.Active)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.FindByID(ctx, b.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, b.ID)))

	missing := newBonus(t, "ghost", 0, true, base)
	missing.ID = b.ID
	assert.True(t, shared.IsNotFound(repo.Update(ctx, missing)))
}

func bonusNames(items []*bonus.Bonus) []string {
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = b.Name
	}
	return out
}

func newLeaderboard(t *testing.T, name string, start time.Time, days, order int, active bool) *leaderboard.Leaderboard {
	t.Helper()
	lb, err := leaderboard.New(leaderboard.NewParams{
		Bonus:     leaderboard.BonusRef{ID: "b-1", Name: "Roobet", Logo: "/r.png", URL: "https://r.example"},
		Name:      name,
		Duration:  days,
		StartDate: start,
		Prizes:    leaderboard.PrizeTable{1: 500, 2: 250, 3: 100, 4: 50},
		PlayerData: []leaderboard.PlayerRecord{
			{PlayerUID: "u1", WinsBase: 10},
			{PlayerUID: "u2", WinsBase: 25.5},
			{PlayerUID: "u1", WinsBase: 30, Extra: map[string]any{"country": "KZ"}},
			{PlayerUID: "u3", WinsBase: 1},
			{PlayerUID: "u4", WinsBase: 0},
		},
		Active: &active,
		Order:  order,
		Now:    start,
	})
	require.NoError(t, err)
	return lb
}

// LeaderboardRepository checks CRUD, JSON-ish columns and the public filter.
func LeaderboardRepository(t *testing.T, repo leaderboard.Repository) {
	ctx := context.Background()

	next, err := repo.NextOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	live := newLeaderboard(t, "live", base, 7, 2, true)
	ended := newLeaderboard(t, "ended", base.Add(-30*shared.Day), 7, 0, true)
	hidden := newLeaderboard(t, "hidden", base, 7, 0, false)
	for _, lb := range []*leaderboard.Leaderboard{live, ended, hidden} {
		require.NoError(t, repo.Create(ctx, lb))
		require.NotEmpty(t, lb.ID)
	}

	next, err = repo.NextOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	got, err := repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roobet", got.BonusName)
	assert.Equal(t, 7, got.Duration)
	assert.True(t, got.EndDate.Equal(base.Add(7*shared.Day)))
	assert.Equal(t, 250.0, got.Prizes.Amount(2))
	assert.Equal(t, 50.0, got.Prizes.Amount(4))
	require.Len(t, got.TopThree, 3)
	assert.Equal(t, "u1", got.TopThree[0].Username)
	assert.Equal(t, 30.0, got.TopThree[0].Wagered)
	require.Len(t, got.Challengers, 1)
	assert.Equal(t, 4, got.Challengers[0].Rank)
	require.Len(t, got.PlayerData, 4)
	assert.Equal(t, "u1", got.PlayerData[0].PlayerUID)
	assert.Equal(t, "KZ", got.PlayerData[0].Extra["country"])

	all, err := repo.List(ctx, leaderboard.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, live.ID, all[2].ID)

	public, err := repo.List(ctx, leaderboard.Filter{ActiveOnly: true, EndingNotBefore: base})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, live.ID, public[0].ID)

	got.Name = "live (extended)"
	require.NoError(t, got.Reschedule(got.StartDate, 10))
	require.NoError(t, got.ApplyPlayerData(nil))
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "live (extended)", again.Name)
	assert.True(t, again.EndDate.Equal(base.Add(10*shared.Day)))
	assert.Empty(t, again.TopThree)
	assert.Empty(t, again.PlayerData)

	require.NoError(t, repo.Delete(ctx, ended.ID))
	_, err = repo.FindByID(ctx, ended.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, ended.ID)))
}

// CounterStore checks seeding and concurrent atomic increments.
func CounterStore(t *testing.T, store counter.Store) {
	ctx := context.Background()

	_, err := store.Find(ctx)
	assert.True(t, shared.IsNotFound(err))

	c, err := store.Add(ctx, 1, counter.DefaultIncrementSeed, base)
	require.NoError(t, err)
	assert.Equal(t, counter.DefaultIncrementSeed, c.TotalJoined)

	c, err = store.FindOrCreate(ctx, counter.DefaultReadSeed, base)
	require.NoError(t, err)
	assert.Equal(t, counter.DefaultIncrementSeed, c.TotalJoined, "existing counter keeps its value")

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, 1, counter.DefaultIncrementSeed, base)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err = store.Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, counter.DefaultIncrementSeed+workers, c.TotalJoined)

	later := base.Add(3 * time.Hour)
	c, err = store.Add(ctx, 12, counter.DefaultReadSeed+12, later)
	require.NoError(t, err)
	assert.Equal(t, counter.DefaultIncrementSeed+workers+12, c.TotalJoined)
	assert.True(t, c.LastUpdated.Equal(later))
}

// EmptyCounterSeed checks that reading an empty store creates the read seed.
func EmptyCounterSeed(t *testing.T, store counter.Store) {
	c, err := store.FindOrCreate(context.Background(), counter.DefaultReadSeed, base)
	require.NoError(t, err)
	assert.Equal(t, counter.DefaultReadSeed, c.TotalJoined)
}

// UserRepository checks uniqueness and lookup by e-mail.
func UserRepository(t *testing.T, repo admin.UserRepository) {
	ctx := context.Background()

	u, err := admin.NewUser("Owner@Eldoah.example", "Owner", admin.RoleSuperAdmin, "$2a$04$hash", base)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	dup, err := admin.NewUser("owner@eldoah.example", "Dup", admin.RoleAdmin, "$2a$04$other", base)
	require.NoError(t, err)
	assert.True(t, shared.IsAlreadyExists(repo.Create(ctx, dup)))

	got, err := repo.FindByEmail(ctx, shared.Email("owner@eldoah.example"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, admin.RoleSuperAdmin, got.Role)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)
	assert.Nil(t, got.LastLogin)

	_, err = repo.FindByEmail(ctx, shared.Email("ghost@eldoah.example"))
	assert.True(t, shared.IsNotFound(err))

	at := base.Add(time.Hour)
	require.NoError(t, repo.TouchLastLogin(ctx, u.ID, at))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(at))
}

// SessionStore checks save, lookup and delete.
func SessionStore(t *testing.T, store admin.SessionStore) {
	ctx := context.Background()
	s := &admin.Session{
		Token:     "tok-123",
		UserID:    "u-1",
		Email:     "owner@eldoah.example",
		Role:      admin.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	_, err := store.Get(ctx, s.Token)
	assert.True(t, shared.IsUnauthorized(err))

	require.NoError(t, store.Save(ctx, s, time.Hour))
	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.Role, got.Role)

	require.NoError(t, store.Delete(ctx, s.Token))
	_, err = store.Get(ctx, s.Token)
	assert.True(t, shared.IsUnauthorized(err))
}
