// Package cookie describes the session cookie. It only ever builds
// *http.Cookie values; writing them onto a response stays with the caller,
// which keeps every function here pure and trivially testable.
package cookie

import (
	"errors"
	"net/http"
	"time"
)

// DefaultName is the session cookie name. Versioned so a future format
// change can invalidate old cookies by bumping the suffix.
const DefaultName = "inkfill-session-v0"

var ErrCookieNotFound = errors.New("cookie.not_found")

// Binding maps session tokens onto a named HTTP cookie for one deployment.
type Binding struct {
	name   string
	domain string
	local  bool
}

// Option configures a Binding.
type Option func(*Binding)

// WithName overrides the cookie name.
func WithName(name string) Option {
	return func(b *Binding) {
		if name != "" {
			b.name = name
		}
	}
}

// WithDomain sets the deployment host the cookie is scoped to.
func WithDomain(host string) Option {
	return func(b *Binding) {
		b.domain = host
	}
}

// WithLocal marks the binding as a local development deployment: the
// cookie domain becomes localhost and the Secure flag is dropped so the
// cookie works over plain http.
func WithLocal(local bool) Option {
	return func(b *Binding) {
		b.local = local
	}
}

// New creates a Binding with production defaults: secure, domain-scoped,
// named DefaultName.
func New(opts ...Option) *Binding {
	b := &Binding{name: DefaultName}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the configured cookie name.
func (b *Binding) Name() string {
	return b.name
}

// Extract reads the token value from the request's session cookie.
func (b *Binding) Extract(r *http.Request) (string, error) {
	c, err := r.Cookie(b.name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	if c.Value == "" {
		return "", ErrCookieNotFound
	}
	return c.Value, nil
}

// Build describes a session cookie carrying the given token until
// expiresAt. HttpOnly and SameSite=Lax always; Secure unless running
// locally.
func (b *Binding) Build(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     b.name,
		Value:    token,
		Path:     "/",
		Domain:   b.cookieDomain(),
		Expires:  expiresAt,
		Secure:   !b.local,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// BuildExpired describes a cookie that forces browser deletion: empty
// value, MaxAge -1 and an Expires far in the past. The value is irrelevant
// once expired.
func (b *Binding) BuildExpired() *http.Cookie {
	return &http.Cookie{
		Name:     b.name,
		Value:    "",
		Path:     "/",
		Domain:   b.cookieDomain(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   !b.local,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (b *Binding) cookieDomain() string {
	if b.local {
		return "localhost"
	}
	return b.domain
}
