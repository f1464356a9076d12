package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/session"
)

// Service runs the OAuth sign-in flow end to end: issue an auth URL,
// resolve the callback to a profile, map the profile to a local user by
// normalized email, and open a cookie session.
type Service struct {
	adapters     map[string]ProviderAdapter
	states       *StateStore
	users        session.UserStore
	manager      *session.Manager
	log          *slog.Logger
	verifiedOnly bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithVerifiedOnly requires the provider to assert the email is
// verified. Enabled by default; disable only for local development
// against providers that never set the flag.
func WithVerifiedOnly(v bool) ServiceOption {
	return func(s *Service) {
		s.verifiedOnly = v
	}
}

// NewService creates the sign-in service with the given provider
// adapters.
func NewService(
	adapters []ProviderAdapter,
	states *StateStore,
	users session.UserStore,
	manager *session.Manager,
	opts ...ServiceOption,
) *Service {
	byID := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		byID[a.ProviderID()] = a
	}

	s := &Service{
		adapters:     byID,
		states:       states,
		users:        users,
		manager:      manager,
		log:          slog.Default(),
		verifiedOnly: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthURL issues a state token and returns the provider authorization
// URL to redirect the browser to.
func (s *Service) AuthURL(ctx context.Context, provider string) (string, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	state, err := s.states.Issue(ctx, provider)
	if err != nil {
		return "", err
	}

	url, err := adapter.AuthURL(state)
	if err != nil {
		return "", fmt.Errorf("build auth url: %w", err)
	}
	return url, nil
}

// HandleCallback completes the flow for an authorization code. It
// returns the post-login redirect target. The ResponseWriter receives
// the session cookie on success and nothing otherwise.
func (s *Service) HandleCallback(ctx context.Context, w http.ResponseWriter, provider, code, state string) (string, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	issuedFor, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", err
	}
	if issuedFor != provider {
		return "", ErrInvalidState
	}

	profile, err := adapter.ResolveProfile(ctx, code)
	if err != nil {
		return "", err
	}
	if s.verifiedOnly && !profile.EmailVerified {
		return "", ErrEmailNotVerified
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "user signed in",
		slog.String("provider", provider),
		slog.String("provider_user_id", profile.ProviderUserID),
		logger.UserID(user.ID))

	return s.manager.Login(ctx, w, user)
}

// Logout tears down the current session and clears the cookie.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	return s.manager.Logout(ctx, w, r)
}

func (s *Service) findOrCreateUser(ctx context.Context, profile Profile) (*session.User, error) {
	email := session.NormalizeEmail(profile.Email)

	user, err := s.users.ByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, session.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user, err = s.users.Create(ctx, email, profile.Name)
	if err != nil {
		// Lost a create race with a concurrent callback.
		if errors.Is(err, session.ErrUserExists) {
			return s.users.ByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
