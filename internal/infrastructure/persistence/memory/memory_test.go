package memory

import (
	"context"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBonusRepository(t *testing.T) {
	storetest.BonusRepository(t, NewBonusRepository())
}

func TestLeaderboardRepository(t *testing.T) {
	storetest.LeaderboardRepository(t, NewLeaderboardRepository())
}

func TestCounterStore(t *testing.T) {
	storetest.CounterStore(t, NewCounterStore())
	storetest.EmptyCounterSeed(t, NewCounterStore())
}

func TestUserRepository(t *testing.T) {
	storetest.UserRepository(t, NewUserRepository())
}

func TestSessionStore(t *testing.T) {
	storetest.SessionStore(t, NewSessionStore())
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &admin.Session{Token: "t"}, time.Minute))
	_, err := store.Get(ctx, "t")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "t")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestBonusRepository_ReturnsCopies(t *testing.T) {
	repo := NewBonusRepository()
	ctx := context.Background()
	b, err := bonus.New(bonus.Bonus{
		Name: "a", Logo: "/a.png", URL: "https://a.example", BonusCode: "x", BonusAmount: "1",
		Steps: []string{"one"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	got.Steps[0] = "mutated"
	got.Name = "mutated"

	again, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Name)
	assert.Equal(t, []string{"one"}, again.Steps)
}
