package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/application/query"
	"github.com/eldoah/promo-hub/internal/domain/admin"
	domaincounter "github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/memory"
	"github.com/eldoah/promo-hub/internal/interface/http/handlers"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST HARNESS
// ══════════════════════════════════════════════════════════════════════════════

const (
	testEmail    = "admin@promo.example"
	testPassword = "hunter22"
)

type testEnv struct {
	srv     *Server
	metrics *metrics.Metrics
	health  *handlers.Health
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()
	return newTestEnvWithCounter(t, counter.NewService(memory.NewCounterStore(), counter.DefaultConfig()), mutate...)
}

func newTestEnvWithCounter(t *testing.T, svc *counter.Service, mutate ...func(*Config)) *testEnv {
	t.Helper()

	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	bonuses := memory.NewBonusRepository()
	boards := memory.NewLeaderboardRepository()
	m := metrics.New()
	health := handlers.NewHealth("test", time.Second)

	_, err := command.NewCreateAdminHandler(users, nil).Handle(context.Background(), command.CreateAdminCommand{
		Email:    testEmail,
		Password: testPassword,
		Name:     "Admin",
		Role:     admin.RoleAdmin,
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	for _, fn := range mutate {
		fn(&cfg)
	}

	srv := NewServer(cfg, Dependencies{
		CreateBonus:       command.NewCreateBonusHandler(bonuses, nil, nil),
		UpdateBonus:       command.NewUpdateBonusHandler(bonuses, nil, nil),
		DeleteBonus:       command.NewDeleteBonusHandler(bonuses, nil, nil),
		CreateLeaderboard: command.NewCreateLeaderboardHandler(boards, bonuses, nil, nil),
		UpdateLeaderboard: command.NewUpdateLeaderboardHandler(boards, bonuses, nil, nil),
		DeleteLeaderboard: command.NewDeleteLeaderboardHandler(boards, nil, nil),
		Login:             command.NewLoginHandler(users, sessions, 0, nil),
		Logout:            command.NewLogoutHandler(sessions),

		ListBonuses:            query.NewListBonusesHandler(bonuses),
		ListPublicBonuses:      query.NewListPublicBonusesHandler(bonuses, nil, nil),
		GetBonus:               query.NewGetBonusHandler(bonuses),
		ListLeaderboards:       query.NewListLeaderboardsHandler(boards),
		ListPublicLeaderboards: query.NewListPublicLeaderboardsHandler(boards, nil, nil),
		GetLeaderboard:         query.NewGetLeaderboardHandler(boards),
		CurrentAdmin:           query.NewCurrentAdminHandler(sessions, users),

		Counter: svc,
		Metrics: m,
		Health:  health,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{srv: srv, metrics: m, health: health}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res loginResponse
	decodeData(t, rec, &res)
	require.NotEmpty(t, res.Token)
	return res.Token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Message string          `json:"message"`
	Meta    *ResponseMeta   `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeBare(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}

func validBonus() map[string]any {
	return map[string]any{
		"name":        "Roobet",
		"logo":        "/logos/roobet.png",
		"url":         "https://roobet.example/?ref=eldoah",
		"bonusCode":   "eldoah",
		"bonusAmount": "$20 FREE",
		"steps":       []string{"Sign up", "Enter the code"},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VISITOR COUNTER
// ══════════════════════════════════════════════════════════════════════════════

func TestCounter_ReadThenIncrement(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/eldoah-stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"totalJoined": 370.0}, decodeBare(t, rec))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	rec = env.do(t, http.MethodPost, "/api/eldoah-stats", nil, "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"totalJoined": 371.0}, decodeBare(t, rec))

	rec = env.do(t, http.MethodPost, "/api/eldoah-stats", nil, "X-Forwarded-For", "203.0.113.7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"totalJoined":    371.0,
		"alreadyCounted": true,
		"message":        "You have already been counted today",
	}, decodeBare(t, rec))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterIncrements.WithLabelValues(metrics.OutcomeCounted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterIncrements.WithLabelValues(metrics.OutcomeAlreadyCounted)))
}

// flakyCounterStore fails every call while down is set.
type flakyCounterStore struct {
	*memory.CounterStore
	down atomic.Bool
}

var errStoreDown = errors.New("connection refused")

func (s *flakyCounterStore) Find(ctx context.Context) (*domaincounter.Counter, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.CounterStore.Find(ctx)
}

func (s *flakyCounterStore) FindOrCreate(ctx context.Context, seed int64, now time.Time) (*domaincounter.Counter, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.CounterStore.FindOrCreate(ctx, seed, now)
}

func (s *flakyCounterStore) Add(ctx context.Context, delta, initial int64, now time.Time) (*domaincounter.Counter, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.CounterStore.Add(ctx, delta, initial, now)
}

func TestCounter_ReadFallsBackWhenStoreIsDown(t *testing.T) {
	t.Run("cold start serves the read seed", func(t *testing.T) {
		store := &flakyCounterStore{CounterStore: memory.NewCounterStore()}
		store.down.Store(true)
		env := newTestEnvWithCounter(t, counter.NewService(store, counter.DefaultConfig()))

		rec := env.do(t, http.MethodGet, "/api/eldoah-stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"totalJoined": 370.0}, decodeBare(t, rec))
	})

	t.Run("serves the last value once the cache expires", func(t *testing.T) {
		store := &flakyCounterStore{CounterStore: memory.NewCounterStore()}
		now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
		svc := counter.NewService(store, counter.DefaultConfig(), counter.WithClock(func() time.Time { return now }))
		env := newTestEnvWithCounter(t, svc)

		rec := env.do(t, http.MethodPost, "/api/eldoah-stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = env.do(t, http.MethodGet, "/api/eldoah-stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, map[string]any{"totalJoined": 371.0}, decodeBare(t, rec))

		store.down.Store(true)
		now = now.Add(time.Minute)

		rec = env.do(t, http.MethodGet, "/api/eldoah-stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"totalJoined": 371.0}, decodeBare(t, rec))
	})
}

func TestCounter_IncrementOnEmptyStoreStartsAt371(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/eldoah-stats", nil, "X-Real-IP", "198.51.100.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"totalJoined": 371.0}, decodeBare(t, rec))
}

func TestCron_SecretRequired(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.CronSecret = "s3cret" })

	rec := env.do(t, http.MethodGet, "/api/eldoah-stats/cron", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"error": "Unauthorized"}, decodeBare(t, rec))

	rec = env.do(t, http.MethodGet, "/api/eldoah-stats/cron", nil, bearer("wrong")...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec = env.do(t, method, "/api/eldoah-stats/cron", nil, bearer("s3cret")...)
		require.Equal(t, http.StatusOK, rec.Code, method)

		body := decodeBare(t, rec)
		assert.Equal(t, true, body["success"])
		inc := body["increment"].(float64)
		assert.GreaterOrEqual(t, inc, 10.0)
		assert.LessOrEqual(t, inc, 20.0)
		assert.True(t, strings.HasPrefix(body["message"].(string), "Counter incremented by "))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CounterBumps))
}

func TestCron_OpenWithoutSecret(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/eldoah-stats/cron", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBare(t, rec)
	assert.Equal(t, 370.0+body["increment"].(float64), body["totalJoined"])
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTH
// ══════════════════════════════════════════════════════════════════════════════

func TestAdmin_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/admin/me", "/api/admin/bonuses", "/api/admin/leaderboards"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		e := decodeEnvelope(t, rec)
		assert.False(t, e.Success)
		require.NotNil(t, e.Error)
		assert.Equal(t, "unauthorized", e.Error.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/admin/me", nil, bearer("bogus")...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_LoginMeLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    "ADMIN@promo.example",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var res loginResponse
	decodeData(t, rec, &res)
	assert.Equal(t, cookies[0].Value, res.Token)

	// Cookie works as well as the bearer header.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)

	var user map[string]any
	decodeData(t, me, &user)
	assert.Equal(t, testEmail, user["email"])
	assert.NotContains(t, user, "passwordHash")

	rec = env.do(t, http.MethodPost, "/api/admin/logout", nil, bearer(res.Token)...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/me", nil, bearer(res.Token)...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_LoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)

	wrongPassword := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email": testEmail, "password": "nope-nope",
	})
	unknownUser := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email": "ghost@promo.example", "password": "nope-nope",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, decodeEnvelope(t, wrongPassword).Error, decodeEnvelope(t, unknownUser).Error)

	rec := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.Equal(t, map[string]any{"password": "is required"}, e.Error.Details)
}

// ══════════════════════════════════════════════════════════════════════════════
// BONUSES
// ══════════════════════════════════════════════════════════════════════════════

func TestBonuses_CRUD(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", validBonus(), auth...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	decodeData(t, rec, &created)
	id := created["_id"].(string)
	assert.Equal(t, "ELDOAH", created["bonusCode"])
	assert.Equal(t, true, created["active"])

	rec = env.do(t, http.MethodGet, "/api/bonuses/public", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []map[string]any
	decodeData(t, rec, &public)
	require.Len(t, public, 1)
	assert.Equal(t, id, public[0]["_id"])

	rec = env.do(t, http.MethodPatch, "/api/admin/bonuses/"+id, map[string]any{"active": false, "bonusCode": "vip"}, auth...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	decodeData(t, rec, &updated)
	assert.Equal(t, false, updated["active"])
	assert.Equal(t, "VIP", updated["bonusCode"])

	rec = env.do(t, http.MethodGet, "/api/bonuses/public", nil)
	decodeData(t, rec, &public)
	assert.Empty(t, public)

	rec = env.do(t, http.MethodGet, "/api/admin/bonuses?active=true", nil, auth...)
	var activeOnly []map[string]any
	decodeData(t, rec, &activeOnly)
	assert.Empty(t, activeOnly)

	rec = env.do(t, http.MethodGet, "/api/admin/bonuses", nil, auth...)
	var all []map[string]any
	decodeData(t, rec, &all)
	assert.Len(t, all, 1)

	rec = env.do(t, http.MethodDelete, "/api/admin/bonuses/"+id, nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bonus deleted successfully", decodeEnvelope(t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/admin/bonuses/"+id, nil, auth...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeEnvelope(t, rec).Error.Code)
}

func TestBonuses_ValidationDetails(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	body := validBonus()
	delete(body, "name")
	body["url"] = "not a url"

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", body, auth...)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := decodeEnvelope(t, rec)
	assert.Equal(t, "validation_error", e.Error.Code)
	assert.Equal(t, map[string]any{
		"name": "is required",
		"url":  "must be a valid URL",
	}, e.Error.Details)
}

func TestBonuses_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", "{not json", auth...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/bonuses/missing", map[string]any{"name": "x"}, auth...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARDS
// ══════════════════════════════════════════════════════════════════════════════

func TestLeaderboards_CreateAndPublicView(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", validBonus(), auth...)
	require.Equal(t, http.StatusCreated, rec.Code)
	var b map[string]any
	decodeData(t, rec, &b)

	rec = env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{
		"bonusId":   b["_id"],
		"name":      "Weekly Race",
		"duration":  "7",
		"startDate": "2026-10-14",
		"playerData": []map[string]any{
			{"player_uid": "alice", "wins_base": 100},
			{"player_uid": "bob", "wins_base": "250.5"},
			{"player_uid": "alice", "wins_base": 300},
			{"player_uid": "carol", "wins_base": 50, "week": "41"},
		},
	}, auth...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var lb map[string]any
	decodeData(t, rec, &lb)
	assert.Equal(t, "Roobet", lb["bonusName"])
	assert.Equal(t, 7.0, lb["duration"])
	assert.Equal(t, "ALL PRIZES ARE IN CREDITS *", lb["prizeText"])

	top := lb["topThree"].([]any)
	require.Len(t, top, 3)
	assert.Equal(t, map[string]any{"rank": 1.0, "username": "alice", "wagered": 300.0}, top[0])
	assert.Equal(t, "bob", top[1].(map[string]any)["username"])

	rec = env.do(t, http.MethodGet, "/api/leaderboards/public", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []map[string]any
	decodeData(t, rec, &public)
	require.Len(t, public, 1)
	assert.NotContains(t, public[0], "playerData")
}

func TestLeaderboards_MissingFieldsAndUnknownBonus(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{"name": "No bonus"}, auth...)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeEnvelope(t, rec).Error.Message)

	rec = env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{
		"bonusId":   "does-not-exist",
		"name":      "Race",
		"duration":  3,
		"startDate": "2026-10-14",
	}, auth...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboards_DurationOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", validBonus(), auth...)
	require.Equal(t, http.StatusCreated, rec.Code)
	var b map[string]any
	decodeData(t, rec, &b)

	for _, duration := range []any{200000, "3651", 1e30} {
		rec = env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{
			"bonusId":   b["_id"],
			"name":      "Endless",
			"duration":  duration,
			"startDate": "2025-01-01",
		}, auth...)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "duration %v: %s", duration, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{
		"bonusId":   b["_id"],
		"name":      "Decade",
		"duration":  3650,
		"startDate": "2025-01-01T00:00:00Z",
	}, auth...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var lb map[string]any
	decodeData(t, rec, &lb)
	assert.Equal(t, "2034-12-30T00:00:00Z", lb["endDate"])

	rec = env.do(t, http.MethodPatch, "/api/admin/leaderboards/"+lb["_id"].(string),
		map[string]any{"duration": 200000}, auth...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboards_PatchRecomputesStandings(t *testing.T) {
	env := newTestEnv(t)
	auth := bearer(env.login(t))

	rec := env.do(t, http.MethodPost, "/api/admin/bonuses", validBonus(), auth...)
	var b map[string]any
	decodeData(t, rec, &b)

	rec = env.do(t, http.MethodPost, "/api/admin/leaderboards", map[string]any{
		"bonusId": b["_id"], "name": "Race", "duration": 3, "startDate": "now",
		"playerData": []map[string]any{{"player_uid": "alice", "wins_base": 10}},
	}, auth...)
	require.Equal(t, http.StatusCreated, rec.Code)
	var lb map[string]any
	decodeData(t, rec, &lb)
	id := lb["_id"].(string)

	rec = env.do(t, http.MethodPatch, "/api/admin/leaderboards/"+id, map[string]any{"playerData": []any{}}, auth...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &lb)
	assert.Empty(t, lb["topThree"])

	rec = env.do(t, http.MethodDelete, "/api/admin/leaderboards/"+id, nil, auth...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/leaderboards/"+id, nil, auth...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// INFRASTRUCTURE ROUTES
// ══════════════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.health.Register("redis", handlers.PingFunc(func(context.Context) error { return errors.New("connection refused") }))

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestMetricsEndpointAndRouteLabels(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/api/bonuses/public", nil)
	env.do(t, http.MethodGet, "/api/bonuses/public", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		env.metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/bonuses/public", "200")))

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNotFoundAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", nil, "X-Request-ID", "req-123")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = env.do(t, http.MethodGet, "/", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimitPerMinute = 2
		c.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/api/eldoah-stats", nil, "X-Real-IP", "192.0.2.1")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/eldoah-stats", nil, "X-Real-IP", "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another client has its own bucket.
	rec = env.do(t, http.MethodGet, "/api/eldoah-stats", nil, "X-Real-IP", "192.0.2.2")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health is outside the limited /api tree.
	rec = env.do(t, http.MethodGet, "/health/live", nil, "X-Real-IP", "192.0.2.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.9:5555", "192.0.2.9"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"no port", nil, "192.0.2.10", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in      string
		want    flexInt
		wantErr bool
	}{
		{`7`, 7, false},
		{`7.0`, 7, false},
		{`"14"`, 14, false},
		{`" 3 "`, 3, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"seven"`, 0, true},
		{`true`, 0, true},
		{`7.5`, 0, true},
		{`1e30`, 0, true},
		{`"-1e300"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got flexInt
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
