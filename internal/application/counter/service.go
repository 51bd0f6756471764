// Package counter реализует сервис счётчика "присоединившихся":
// чтение через 30-секундный кеш, инкремент не чаще раза в сутки
// на клиента и периодический "органический" прирост.
//
// Таблица ограничений живёт в памяти процесса и не переживает рестарт.
// При нескольких инстансах каждый ведёт свою таблицу, это известное
// ограничение, а не ошибка.
package counter

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	domain "github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// AlreadyCountedMessage возвращается клиенту при повторном визите.
const AlreadyCountedMessage = "You have already been counted today"

// unknownClient подставляется, если адрес клиента определить не удалось.
const unknownClient = "unknown"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config - параметры сервиса.
type Config struct {
	// CacheTTL - время жизни кеша чтения.
	CacheTTL time.Duration

	// RateWindow - окно, в течение которого клиент считается один раз.
	RateWindow time.Duration

	// ReadSeed - начальное значение при создании счётчика чтением (и бампом).
	ReadSeed int64

	// IncrementSeed - начальное значение при создании счётчика инкрементом.
	IncrementSeed int64
}

// DefaultConfig возвращает значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		CacheTTL:      30 * time.Second,
		RateWindow:    24 * time.Hour,
		ReadSeed:      domain.DefaultReadSeed,
		IncrementSeed: domain.DefaultIncrementSeed,
	}
}

// Rand - источник случайных чисел для Bump.
type Rand interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand подменяет генератор случайных чисел.
func WithRand(r Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPublisher задаёт шину событий для CounterBumpedEvent.
func WithPublisher(p shared.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - результат чтения.
type Snapshot struct {
	TotalJoined int64 `json:"totalJoined"`
}

// Result - результат инкремента.
type Result struct {
	TotalJoined    int64 `json:"totalJoined"`
	AlreadyCounted bool  `json:"alreadyCounted"`
}

// BumpResult - результат периодического прироста.
type BumpResult struct {
	Increment   int64 `json:"increment"`
	TotalJoined int64 `json:"totalJoined"`
}

type cacheEntry struct {
	value int64
	at    time.Time
	valid bool
	known bool
	gen   uint64
}

// Service владеет кешем и таблицей ограничений. Создаётся один раз на процесс.
type Service struct {
	store     domain.Store
	cfg       Config
	now       func() time.Time
	rnd       Rand
	randMu    sync.Mutex
	logger    *slog.Logger
	publisher shared.EventPublisher

	cacheMu sync.Mutex
	cache   cacheEntry

	limitsMu sync.RWMutex
	limits   map[string]time.Time
}

// NewService создаёт сервис счётчика.
func NewService(store domain.Store, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.ReadSeed == 0 {
		cfg.ReadSeed = def.ReadSeed
	}
	if cfg.IncrementSeed == 0 {
		cfg.IncrementSeed = def.IncrementSeed
	}

	s := &Service{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		rnd:    globalRand{},
		logger: slog.Default(),
		limits: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read возвращает текущее значение, по возможности из кеша.
func (s *Service) Read(ctx context.Context) (Snapshot, error) {
	now := s.now()

	s.cacheMu.Lock()
	if s.cache.valid && now.Sub(s.cache.at) < s.cfg.CacheTTL {
		v := s.cache.value
		s.cacheMu.Unlock()
		return Snapshot{TotalJoined: v}, nil
	}
	gen := s.cache.gen
	s.cacheMu.Unlock()

	c, err := s.store.FindOrCreate(ctx, s.cfg.ReadSeed, now)
	if err != nil {
		return Snapshot{}, shared.WrapError("counter", "Read", shared.ErrStorage, "cannot read counter", err)
	}

	s.cacheMu.Lock()
	// Запись, случившаяся во время чтения, уже сбросила кеш: не затираем её.
	if s.cache.gen == gen {
		s.cache = cacheEntry{value: c.TotalJoined, at: now, valid: true, known: true, gen: gen}
	}
	s.cacheMu.Unlock()

	return Snapshot{TotalJoined: c.TotalJoined}, nil
}

// LastKnown возвращает последнее виденное значение, даже устаревшее.
func (s *Service) LastKnown() (int64, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cache.value, s.cache.known
}

// ReadSeed возвращает значение, с которым создаётся счётчик при чтении.
func (s *Service) ReadSeed() int64 {
	return s.cfg.ReadSeed
}

// Increment засчитывает визит клиента не чаще раза в RateWindow.
func (s *Service) Increment(ctx context.Context, clientID string) (Result, error) {
	if clientID == "" {
		clientID = unknownClient
	}
	now := s.now()

	s.limitsMu.Lock()
	prev, had := s.limits[clientID]
	if had && now.Sub(prev) < s.cfg.RateWindow {
		s.limitsMu.Unlock()
		return s.current(ctx)
	}
	// Резервируем слот до записи, чтобы параллельный запрос того же клиента
	// увидел "уже засчитан".
	s.limits[clientID] = now
	s.limitsMu.Unlock()

	c, err := s.store.Add(ctx, 1, s.cfg.IncrementSeed, now)
	if err != nil {
		s.release(clientID, now, prev, had)
		return Result{}, shared.WrapError("counter", "Increment", shared.ErrStorage, "cannot increment counter", err)
	}

	s.invalidate(c.TotalJoined)
	return Result{TotalJoined: c.TotalJoined}, nil
}

func (s *Service) current(ctx context.Context) (Result, error) {
	c, err := s.store.Find(ctx)
	switch {
	case shared.IsNotFound(err):
		return Result{TotalJoined: s.cfg.ReadSeed, AlreadyCounted: true}, nil
	case err != nil:
		return Result{}, shared.WrapError("counter", "Increment", shared.ErrStorage, "cannot read counter", err)
	}
	return Result{TotalJoined: c.TotalJoined, AlreadyCounted: true}, nil
}

// release откатывает резерв, если его никто не перезаписал.
func (s *Service) release(clientID string, reserved, prev time.Time, had bool) {
	s.limitsMu.Lock()
	defer s.limitsMu.Unlock()

	if cur, ok := s.limits[clientID]; !ok || !cur.Equal(reserved) {
		return
	}
	if had {
		s.limits[clientID] = prev
	} else {
		delete(s.limits, clientID)
	}
}

// Bump прибавляет случайное число из [lo, hi] независимо от ограничений.
func (s *Service) Bump(ctx context.Context, lo, hi int64) (BumpResult, error) {
	if lo < 0 || hi < lo {
		return BumpResult{}, shared.ErrInvalidBumpRange
	}

	s.randMu.Lock()
	inc := lo + s.rnd.Int64N(hi-lo+1)
	s.randMu.Unlock()

	c, err := s.store.Add(ctx, inc, s.cfg.ReadSeed+inc, s.now())
	if err != nil {
		return BumpResult{}, shared.WrapError("counter", "Bump", shared.ErrStorage, "cannot bump counter", err)
	}
	s.invalidate(c.TotalJoined)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, shared.NewCounterBumpedEvent(inc, c.TotalJoined)); err != nil {
			s.logger.Warn("failed to publish counter event", "error", err)
		}
	}

	return BumpResult{Increment: inc, TotalJoined: c.TotalJoined}, nil
}

// PruneRateLimits удаляет записи старше RateWindow и возвращает их число.
// Таблица сканируется по снимку, удаляются только записи, не изменившиеся
// с момента снимка.
func (s *Service) PruneRateLimits(now time.Time) int {
	s.limitsMu.RLock()
	stale := make(map[string]time.Time)
	for id, at := range s.limits {
		if now.Sub(at) >= s.cfg.RateWindow {
			stale[id] = at
		}
	}
	s.limitsMu.RUnlock()

	removed := 0
	for id, at := range stale {
		s.limitsMu.Lock()
		if cur, ok := s.limits[id]; ok && cur.Equal(at) {
			delete(s.limits, id)
			removed++
		}
		s.limitsMu.Unlock()
	}
	return removed
}

// TrackedClients возвращает размер таблицы ограничений.
func (s *Service) TrackedClients() int {
	s.limitsMu.RLock()
	defer s.limitsMu.RUnlock()
	return len(s.limits)
}

// Now возвращает время по часам сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}

// Forget сбрасывает кеш чтения. Вызывается, когда счётчик изменил
// другой инстанс.
func (s *Service) Forget(latest int64) {
	s.invalidate(latest)
}

// invalidate сбрасывает кеш после записи, запоминая новое значение
// только для LastKnown.
func (s *Service) invalidate(latest int64) {
	s.cacheMu.Lock()
	s.cache.valid = false
	s.cache.value = latest
	s.cache.known = true
	s.cache.gen++
	s.cacheMu.Unlock()
}
