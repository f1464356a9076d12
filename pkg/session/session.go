package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account created on first successful identity-provider login.
// Users are immutable once created; there is no update path.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the server-side record granting continued access until
// ExpiresAt. Expiry is fixed at creation; there is no sliding renewal. A
// row past its expiry is treated as absent even if it still exists.
type Session struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired reports whether the session is past its fixed expiry.
func (s *Session) IsExpired() bool {
	return s != nil && !time.Now().Before(s.ExpiresAt)
}

// NormalizeEmail canonicalizes an email address the way the user store
// expects it: trimmed and lowercased. Uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
