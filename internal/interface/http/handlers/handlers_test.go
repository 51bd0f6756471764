package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer s3cret", "s3cret"},
		{"bearer  s3cret ", "s3cret"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), tt.header)
	}
}

func TestSecretAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("configured", func(t *testing.T) {
		h := NewSecretAuth("cron-secret").Middleware(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

		req := httptest.NewRequest(http.MethodPost, "/cron", nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty secret allows everyone", func(t *testing.T) {
		a := NewSecretAuth("")
		assert.False(t, a.Enabled())
		assert.True(t, a.IsValid(""))

		rec := httptest.NewRecorder()
		a.Middleware(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cron", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestHeaderMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(NoCacheMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, err := r.Body.Read(buf)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload_too_large")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestKeyedRateLimiter(t *testing.T) {
	krl := NewKeyedRateLimiter(60, 2, time.Minute)
	t.Cleanup(krl.Stop)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return clock }

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"), "burst spent")
	assert.True(t, krl.Allow("10.0.0.2"), "keys are independent")
	assert.GreaterOrEqual(t, krl.RetryAfter("10.0.0.1"), time.Second)

	clock = clock.Add(time.Second)
	assert.True(t, krl.Allow("10.0.0.1"), "one token per second refills")

	assert.Equal(t, 2, krl.Len())
	clock = clock.Add(30 * time.Second)
	krl.Allow("10.0.0.2")
	assert.Equal(t, 0, krl.Evict(clock))

	assert.Equal(t, 2, krl.Evict(clock.Add(2*time.Minute)))
	assert.Zero(t, krl.Len())

	krl.Stop()
	krl.Stop()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth_Check(t *testing.T) {
	h := NewHealth("1.2.3", time.Second)

	status := h.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "No dependencies registered", status.Message)
	assert.Equal(t, "1.2.3", status.Version)

	h.Register("postgres", pinger{})
	h.Register("redis", pinger{err: errors.New("connection refused")})
	h.Register("mongo", pinger{err: errors.New("timeout")})

	status = h.Check(context.Background())
	require.Len(t, status.Checks, 3)
	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: mongo, redis", status.Message)
	assert.Equal(t, "OK", status.Checks["postgres"].Message)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)

	h.Register("redis", pinger{})
	h.Register("mongo", pinger{})
	status = h.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Len(t, status.Checks, 3, "re-registering replaces")
}

func TestHealth_PingTimeout(t *testing.T) {
	h := NewHealth("", 10*time.Millisecond)
	h.Register("redis", PingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	status := h.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["redis"].Message)
}
