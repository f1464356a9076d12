package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines session persistence. Every lookup is scoped by session id
// AND user id together: a session id alone never authenticates, so
// guessing ids across users yields nothing even on collision.
type Store interface {
	// Create inserts a new session row and returns its generated id.
	Create(ctx context.Context, userID uuid.UUID, expiresAt, lastSeenAt time.Time) (uuid.UUID, error)

	// Get retrieves the session matching both identifiers.
	// Returns ErrSessionNotFound when no such row exists.
	Get(ctx context.Context, sessionID, userID uuid.UUID) (*Session, error)

	// Touch updates only last_seen_at. Concurrent touches race with
	// last-writer-wins semantics, which is acceptable: nothing depends on
	// that column beyond "approximately recent".
	Touch(ctx context.Context, sessionID, userID uuid.UUID, lastSeenAt time.Time) error

	// Delete removes the session matching both identifiers.
	Delete(ctx context.Context, sessionID, userID uuid.UUID) error
}

// UserStore defines user persistence.
type UserStore interface {
	// ByID returns the user or ErrUserNotFound.
	ByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ByEmail looks a user up by normalized email (see NormalizeEmail).
	// Returns ErrUserNotFound when no account exists for the address.
	ByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a user for a previously-unseen email.
	Create(ctx context.Context, email, name string) (*User, error)
}
