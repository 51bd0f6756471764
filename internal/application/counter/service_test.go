package counter

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	domain "github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore считает обращения и выполняет Add атомарно под мьютексом,
// как это делают настоящие хранилища.
type fakeStore struct {
	mu       sync.Mutex
	counter  *domain.Counter
	accesses int
	failNext error
}

func (f *fakeStore) Find(context.Context) (*domain.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accesses++
	if f.counter == nil {
		return nil, shared.ErrCounterNotFound
	}
	c := *f.counter
	return &c, nil
}

func (f *fakeStore) FindOrCreate(_ context.Context, seed int64, now time.Time) (*domain.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accesses++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if f.counter == nil {
		f.counter = &domain.Counter{TotalJoined: seed, LastUpdated: now}
	}
	c := *f.counter
	return &c, nil
}

func (f *fakeStore) Add(_ context.Context, delta, initial int64, now time.Time) (*domain.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accesses++
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if f.counter == nil {
		f.counter = &domain.Counter{TotalJoined: initial}
	} else {
		f.counter.TotalJoined += delta
	}
	f.counter.LastUpdated = now
	c := *f.counter
	return &c, nil
}

func (f *fakeStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) value() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counter == nil {
		return 0
	}
	return f.counter.TotalJoined
}

func (f *fakeStore) accessCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accesses
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(store *fakeStore, clock *fakeClock, opts ...Option) *Service {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(store, DefaultConfig(), opts...)
}

func TestService_ReadCreatesWithReadSeed(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())

	snap, err := svc.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(370), snap.TotalJoined)
}

func TestService_ReadHitsCacheWithinTTL(t *testing.T) {
	store := &fakeStore{}
	clock := newFakeClock()
	svc := newTestService(store, clock)
	ctx := context.Background()

	_, err := svc.Read(ctx)
	require.NoError(t, err)
	clock.Advance(29 * time.Second)
	_, err = svc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.accessCount(), "second read must come from cache")

	clock.Advance(2 * time.Second)
	_, err = svc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.accessCount(), "expired cache goes back to the store")
}

// Счётчик, созданный инкрементом, стартует с 371, а созданный чтением - с 370.
// Асимметрия сохранена намеренно: первый инкремент уже считается визитом.
func TestService_FirstIncrementCreatesWithIncrementSeed(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())

	res, err := svc.Increment(context.Background(), "ip1")
	require.NoError(t, err)
	assert.Equal(t, int64(371), res.TotalJoined)
	assert.False(t, res.AlreadyCounted)
}

func TestService_IncrementTwiceWithinWindow(t *testing.T) {
	store := &fakeStore{}
	clock := newFakeClock()
	svc := newTestService(store, clock)
	ctx := context.Background()

	first, err := svc.Increment(ctx, "ip1")
	require.NoError(t, err)
	before := store.value()

	clock.Advance(23 * time.Hour)
	second, err := svc.Increment(ctx, "ip1")
	require.NoError(t, err)

	assert.False(t, first.AlreadyCounted)
	assert.True(t, second.AlreadyCounted)
	assert.Equal(t, first.TotalJoined, second.TotalJoined)
	assert.Equal(t, before, store.value(), "suppressed call must not touch the value")
}

func TestService_IncrementAfterWindowCountsAgain(t *testing.T) {
	store := &fakeStore{counter: &domain.Counter{TotalJoined: 500}}
	clock := newFakeClock()
	svc := newTestService(store, clock)
	ctx := context.Background()

	_, err := svc.Increment(ctx, "ip1")
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)

	res, err := svc.Increment(ctx, "ip1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCounted)
	assert.Equal(t, int64(502), res.TotalJoined)
}

func TestService_AlreadyCountedOnEmptyStoreReportsSeed(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())
	svc.limits["ip1"] = svc.Now()

	res, err := svc.Increment(context.Background(), "ip1")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCounted)
	assert.Equal(t, int64(370), res.TotalJoined)
	assert.Nil(t, store.counter, "suppressed call must not create the counter")
}

func TestService_IncrementInvalidatesCache(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())
	ctx := context.Background()

	snap, err := svc.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(370), snap.TotalJoined)

	_, err = svc.Increment(ctx, "ip1")
	require.NoError(t, err)

	snap, err = svc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(371), snap.TotalJoined)
}

func TestService_StoreFailureReleasesReservation(t *testing.T) {
	store := &fakeStore{failNext: errors.New("connection reset")}
	svc := newTestService(store, newFakeClock())
	ctx := context.Background()

	_, err := svc.Increment(ctx, "ip1")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorage)
	assert.Zero(t, svc.TrackedClients())

	res, err := svc.Increment(ctx, "ip1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCounted, "failed attempt must not count as a visit")
}

func TestService_ReadFailureSurfaces(t *testing.T) {
	store := &fakeStore{failNext: errors.New("timeout")}
	svc := newTestService(store, newFakeClock())

	_, err := svc.Read(context.Background())
	require.Error(t, err)
	_, known := svc.LastKnown()
	assert.False(t, known)
}

func TestService_ConcurrentSameClientCountsOnce(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Increment(ctx, "same-ip")
			assert.NoError(t, err)
			if !res.AlreadyCounted {
				mu.Lock()
				counted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, counted)
	assert.Equal(t, int64(371), store.value())
}

func TestService_ConcurrentDistinctClientsAreNotLost(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Increment(ctx, fmt.Sprintf("10.0.0.%d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Первый создаёт 371, остальные 99 прибавляют по одному.
	assert.Equal(t, int64(470), store.value())
	assert.Equal(t, 100, svc.TrackedClients())
}

func TestService_BumpStaysInRange(t *testing.T) {
	store := &fakeStore{counter: &domain.Counter{TotalJoined: 1000}}
	svc := newTestService(store, newFakeClock(), WithRand(rand.New(rand.NewPCG(1, 2))))
	ctx := context.Background()

	total := int64(1000)
	for i := 0; i < 200; i++ {
		res, err := svc.Bump(ctx, 10, 20)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Increment, int64(10))
		assert.LessOrEqual(t, res.Increment, int64(20))
		total += res.Increment
		assert.Equal(t, total, res.TotalJoined)
	}
}

func TestService_BumpOnEmptyStore(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())

	res, err := svc.Bump(context.Background(), 15, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Increment)
	assert.Equal(t, int64(385), res.TotalJoined)
}

func TestService_BumpIgnoresRateLimiter(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, newFakeClock())
	ctx := context.Background()

	_, err := svc.Bump(ctx, 1, 1)
	require.NoError(t, err)
	_, err = svc.Bump(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, svc.TrackedClients())
	assert.Equal(t, int64(372), store.value())
}

func TestService_BumpRejectsBadRange(t *testing.T) {
	svc := newTestService(&fakeStore{}, newFakeClock())

	_, err := svc.Bump(context.Background(), 20, 10)
	assert.True(t, shared.IsValidation(err))
	_, err = svc.Bump(context.Background(), -1, 10)
	assert.True(t, shared.IsValidation(err))
}

func TestService_PruneRateLimits(t *testing.T) {
	store := &fakeStore{}
	clock := newFakeClock()
	svc := newTestService(store, clock)
	ctx := context.Background()

	_, err := svc.Increment(ctx, "old")
	require.NoError(t, err)
	clock.Advance(23 * time.Hour)
	_, err = svc.Increment(ctx, "fresh")
	require.NoError(t, err)
	clock.Advance(time.Hour)

	removed := svc.PruneRateLimits(clock.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, svc.TrackedClients())

	res, err := svc.Increment(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCounted, "fresh entry survives the prune")
}

func TestService_PruneConcurrentWithIncrements(t *testing.T) {
	store := &fakeStore{}
	clock := newFakeClock()
	svc := newTestService(store, clock)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		_, err := svc.Increment(ctx, fmt.Sprintf("c%d", i))
		require.NoError(t, err)
	}
	clock.Advance(25 * time.Hour)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.PruneRateLimits(clock.Now())
	}()
	go func() {
		defer wg.Done()
		for i := 200; i < 300; i++ {
			_, err := svc.Increment(ctx, fmt.Sprintf("c%d", i))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	// Новые клиенты записаны уже после сдвига часов, их чистка не трогает.
	assert.Equal(t, 100, svc.TrackedClients())
}

func TestService_EmptyClientIDIsBucketed(t *testing.T) {
	svc := newTestService(&fakeStore{}, newFakeClock())
	ctx := context.Background()

	_, err := svc.Increment(ctx, "")
	require.NoError(t, err)
	res, err := svc.Increment(ctx, "")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCounted)
}
