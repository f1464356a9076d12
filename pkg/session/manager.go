package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkfill/inkfill/pkg/authtoken"
	"github.com/inkfill/inkfill/pkg/cookie"
	"github.com/inkfill/inkfill/pkg/logger"
)

// Manager is the session lifecycle controller. It orchestrates the token
// codec, the cookie binding and the stores; it holds no other state, so a
// single instance is safe under arbitrary request interleaving.
type Manager struct {
	codec    *authtoken.Codec
	binding  *cookie.Binding
	sessions Store
	users    UserStore
	config   Config
	log      *slog.Logger
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the logger for best-effort failure reporting.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a lifecycle controller from explicitly constructed
// dependencies. Nothing here is process-global: tests construct managers
// around fakes, production wires the postgres stores.
func NewManager(codec *authtoken.Codec, binding *cookie.Binding, sessions Store, users UserStore, cfg Config, opts ...Option) *Manager {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultConfig().Lifetime
	}
	if cfg.LoginRedirect == "" {
		cfg.LoginRedirect = DefaultConfig().LoginRedirect
	}
	if cfg.LogoutRedirect == "" {
		cfg.LogoutRedirect = DefaultConfig().LogoutRedirect
	}

	m := &Manager{
		codec:    codec,
		binding:  binding,
		sessions: sessions,
		users:    users,
		config:   cfg,
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	skipTouch bool
}

// WithoutTouch skips the best-effort last-seen update. Logout uses it:
// re-touching a session about to be deleted is wasted work.
func WithoutTouch() ResolveOption {
	return func(o *resolveOptions) {
		o.skipTouch = true
	}
}

// Resolve inspects the request's session cookie and classifies the request
// as anonymous, rejected or authenticated. It never returns an error:
// every authentication failure collapses to a rejected result that callers
// treat as anonymous, so public pages keep working for logged-out visitors
// and a probing client learns nothing about why its cookie was refused.
func (m *Manager) Resolve(ctx context.Context, r *http.Request, opts ...ResolveOption) Result {
	var options resolveOptions
	for _, opt := range opts {
		opt(&options)
	}

	raw, err := m.binding.Extract(r)
	if err != nil {
		return anonymous()
	}

	payload, err := m.codec.Verify(raw)
	if err != nil {
		return rejected(err)
	}

	user, err := m.users.ByID(ctx, payload.Data.UserID)
	if err != nil {
		return rejected(err)
	}

	sess, err := m.sessions.Get(ctx, payload.Data.SessionID, user.ID)
	if err != nil {
		return rejected(err)
	}

	if !m.now().Before(sess.ExpiresAt) {
		return rejected(ErrSessionExpired)
	}

	if !options.skipTouch {
		lastSeen := m.now().UTC()
		// Freshness tracking is best-effort, not load-bearing: a failed
		// touch is logged and the request stays authenticated.
		if err := m.sessions.Touch(ctx, sess.ID, user.ID, lastSeen); err != nil {
			m.log.WarnContext(ctx, "failed to update session last_seen_at",
				logger.Error(err),
				logger.SessionID(sess.ID),
			)
		} else {
			sess.LastSeenAt = lastSeen
		}
	}

	return Result{
		State:   StateAuthenticated,
		User:    user,
		Session: sess,
		Token:   payload.Data,
	}
}

// LoginOption adjusts a single Login call.
type LoginOption func(*loginOptions)

type loginOptions struct {
	redirect  string
	expiresAt time.Time
}

// WithRedirect overrides the post-login redirect target.
func WithRedirect(target string) LoginOption {
	return func(o *loginOptions) {
		if target != "" {
			o.redirect = target
		}
	}
}

// WithExpiresAt overrides the session expiry for this login.
func WithExpiresAt(t time.Time) LoginOption {
	return func(o *loginOptions) {
		if !t.IsZero() {
			o.expiresAt = t
		}
	}
}

// Login creates a session row for the user, signs a token referencing it
// and sets the session cookie. Returns the redirect target the handler
// should send the browser to. A store failure propagates: a login that
// silently half-succeeds is worse than one that visibly fails.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, user *User, opts ...LoginOption) (string, error) {
	options := loginOptions{
		redirect:  m.config.LoginRedirect,
		expiresAt: m.now().UTC().Add(m.config.Lifetime),
	}
	for _, opt := range opts {
		opt(&options)
	}

	sessionID, err := m.sessions.Create(ctx, user.ID, options.expiresAt, m.now().UTC())
	if err != nil {
		return "", err
	}

	token, err := m.codec.Sign(authtoken.Payload{
		Data: authtoken.Data{UserID: user.ID, SessionID: sessionID},
	})
	if err != nil {
		// The row exists but no cookie can reference it; the cleanup job
		// collects it later.
		return "", err
	}

	http.SetCookie(w, m.binding.Build(token, options.expiresAt))

	m.log.InfoContext(ctx, "session created",
		logger.UserID(user.ID),
		logger.SessionID(sessionID),
	)

	return options.redirect, nil
}

// Logout deletes the current session row and expires the cookie. Returns
// ErrInvalidSession when the request is not authenticated; the caller is
// expected to redirect home rather than render an error. Store failures
// during deletion propagate for the same reason login failures do.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	res := m.Resolve(ctx, r, WithoutTouch())
	if !res.IsAuthenticated() {
		return "", ErrInvalidSession
	}

	if err := m.sessions.Delete(ctx, res.Session.ID, res.User.ID); err != nil {
		return "", err
	}

	http.SetCookie(w, m.binding.BuildExpired())

	m.log.InfoContext(ctx, "session deleted",
		logger.UserID(res.User.ID),
		logger.SessionID(res.Session.ID),
	)

	return m.config.LogoutRedirect, nil
}

// RenewCookie re-signs a token for the session and re-attaches the cookie
// without touching the store. Used when token metadata changes without a
// full re-login.
func (m *Manager) RenewCookie(w http.ResponseWriter, sess *Session, data authtoken.Data) error {
	token, err := m.codec.Sign(authtoken.Payload{Data: data})
	if err != nil {
		return err
	}

	http.SetCookie(w, m.binding.Build(token, sess.ExpiresAt))
	return nil
}
