package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository implements admin.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	byID  map[string]*admin.User
	email map[shared.Email]string
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:  make(map[string]*admin.User),
		email: make(map[shared.Email]string),
	}
}

// Create stores a user. E-mails are unique.
func (r *UserRepository) Create(_ context.Context, u *admin.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.email[u.Email]; exists {
		return shared.ErrUserAlreadyExists
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := *u
	r.byID[u.ID] = &c
	r.email[u.Email] = u.ID
	return nil
}

// FindByEmail returns a user by e-mail.
func (r *UserRepository) FindByEmail(_ context.Context, email shared.Email) (*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.email[email]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(_ context.Context, id string) (*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// TouchLastLogin stamps the last successful login.
func (r *UserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

// SessionStore implements admin.SessionStore with lazy expiry.
// It is used when Redis is disabled.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	session   admin.Session
	expiresAt time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), now: time.Now}
}

// Save stores a session for ttl.
func (s *SessionStore) Save(_ context.Context, session *admin.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = sessionEntry{session: *session, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns a live session or shared.ErrSessionNotFound.
func (s *SessionStore) Get(_ context.Context, token string) (*admin.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, token)
		return nil, shared.ErrSessionNotFound
	}
	c := e.session
	return &c, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
