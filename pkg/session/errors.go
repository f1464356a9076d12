package session

import "errors"

var (
	// ErrSessionNotFound indicates no session row matches the id pair.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session row exists but is past its
	// fixed expiry.
	ErrSessionExpired = errors.New("session.expired")

	// ErrUserNotFound indicates the referenced user no longer exists
	// (covers deleted users with stale cookies).
	ErrUserNotFound = errors.New("session.user_not_found")

	// ErrUserExists indicates an account already exists for the email.
	ErrUserExists = errors.New("session.user_exists")

	// ErrInvalidSession is raised by Logout when no authenticated session
	// exists; callers redirect home rather than render an error.
	ErrInvalidSession = errors.New("session.invalid")
)
