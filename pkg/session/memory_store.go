package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-process map. Used in tests and
// for running the app without postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*Session)}
}

// Create inserts a new session row.
func (m *MemoryStore) Create(ctx context.Context, userID uuid.UUID, expiresAt, lastSeenAt time.Time) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.sessions[id] = &Session{
		ID:         id,
		UserID:     userID,
		ExpiresAt:  expiresAt,
		LastSeenAt: lastSeenAt,
		CreatedAt:  time.Now().UTC(),
	}
	return id, nil
}

// Get retrieves a session scoped by both identifiers.
func (m *MemoryStore) Get(ctx context.Context, sessionID, userID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}

	out := *sess
	return &out, nil
}

// Touch updates last_seen_at; last writer wins.
func (m *MemoryStore) Touch(ctx context.Context, sessionID, userID uuid.UUID, lastSeenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return ErrSessionNotFound
	}

	sess.LastSeenAt = lastSeenAt
	return nil
}

// Delete removes a session scoped by both identifiers. Deleting an absent
// session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if ok && sess.UserID == userID {
		delete(m.sessions, sessionID)
	}
	return nil
}

// Put inserts a fully specified session row. Test hook for constructing
// expired or otherwise unusual rows.
func (m *MemoryStore) Put(sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.ID] = &sess
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// MemoryUserStore implements UserStore with an in-process map.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]*User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]*User),
	}
}

// ByID returns the user or ErrUserNotFound.
func (m *MemoryUserStore) ByID(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	out := *user
	return &out, nil
}

// ByEmail returns the user for a normalized email or ErrUserNotFound.
func (m *MemoryUserStore) ByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}

	out := *user
	return &out, nil
}

// Create inserts a user, enforcing case-insensitive email uniqueness.
func (m *MemoryUserStore) Create(ctx context.Context, email, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := NormalizeEmail(email)
	if _, exists := m.byEmail[normalized]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:        uuid.New(),
		Email:     normalized,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.byID[user.ID] = user
	m.byEmail[normalized] = user

	out := *user
	return &out, nil
}

// Delete removes a user. Test hook for simulating deleted accounts with
// stale cookies.
func (m *MemoryUserStore) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if ok {
		delete(m.byEmail, user.Email)
		delete(m.byID, id)
	}
}
