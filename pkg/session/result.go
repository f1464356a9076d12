package session

import "github.com/inkfill/inkfill/pkg/authtoken"

// State is the authentication outcome for a single request.
type State int

const (
	// StateAnonymous means no cookie was presented. Terminal, no error.
	StateAnonymous State = iota

	// StateRejected means a cookie was presented but failed a check.
	// Callers treat it exactly like StateAnonymous; the distinction
	// exists for logging and tests, never for responses, so a rejected
	// cookie leaks nothing about why it was rejected.
	StateRejected

	// StateAuthenticated means the token verified and the user and
	// unexpired session were found.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "anonymous"
	}
}

// Result carries the outcome of resolving a request's session cookie.
// There is no partial-trust state: User, Session and Token are set only
// when State is StateAuthenticated.
type Result struct {
	State   State
	User    *User
	Session *Session
	Token   authtoken.Data

	// reason records why a cookie was rejected. Deliberately unexported:
	// it is reachable through Reason for logging, but the type system
	// nudges handlers away from branching on it.
	reason error
}

// IsAuthenticated reports whether the request carries a valid session.
func (r Result) IsAuthenticated() bool {
	return r.State == StateAuthenticated
}

// Reason returns the rejection cause, or nil for anonymous and
// authenticated results.
func (r Result) Reason() error {
	return r.reason
}

func anonymous() Result {
	return Result{State: StateAnonymous}
}

func rejected(reason error) Result {
	return Result{State: StateRejected, reason: reason}
}
