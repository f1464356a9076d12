// Package auth implements OAuth sign-in. Users authenticate through an
// external provider; the service resolves the provider profile to a
// local account and opens a cookie session for it.
package auth

import "context"

// Provider identifiers used in routes, storage, and logging.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// ProviderAdapter hides provider-specific OAuth protocol details.
// Implementations own the oauth2.Config, token exchange, and profile
// endpoints, and expose only what the sign-in flow needs.
type ProviderAdapter interface {
	// ProviderID returns the stable identifier, e.g. "google".
	ProviderID() string

	// AuthURL builds the provider authorization URL carrying the given
	// state token.
	AuthURL(state string) (string, error)

	// ResolveProfile exchanges the authorization code and returns the
	// normalized profile. Exchange failures surface as ErrInvalidCode;
	// a provider that cannot produce an email returns ErrNoEmail.
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

// Profile is the normalized identity a provider returns. The sign-in
// flow matches local accounts by email, so ProviderUserID is kept for
// logging rather than account linkage.
type Profile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}
