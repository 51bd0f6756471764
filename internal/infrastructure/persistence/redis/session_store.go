package redis

import (
	"context"
	"errors"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// SessionStore implements admin.SessionStore. Expiry is the Redis key TTL.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

// Save stores the session for ttl.
func (s *SessionStore) Save(ctx context.Context, session *admin.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrCacheInvalidTTL
	}
	return s.cache.Set(ctx, SessionKey(session.Token), session, ttl)
}

// Get returns a live session or shared.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, token string) (*admin.Session, error) {
	var session admin.Session
	err := s.cache.Get(ctx, SessionKey(token), &session)
	if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheKeyEmpty) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, SessionKey(token))
}
