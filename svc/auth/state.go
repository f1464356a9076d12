package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/inkfill/inkfill/pkg/cache"
)

const statePrefix = "oauth-state"

// StateStore issues and consumes one-time OAuth state tokens. Tokens
// live in the shared cache so the callback can land on any instance;
// consuming a token removes it, which blocks replay.
type StateStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewStateStore creates a state store with the given token lifetime.
func NewStateStore(c cache.Cache, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{cache: c, ttl: ttl}
}

// Issue generates a state token bound to the provider that started the
// flow.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	if err := s.cache.Set(ctx, statePrefix+":"+state, provider, s.ttl); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return state, nil
}

// Consume validates the token and returns the provider it was issued
// for. The token is deleted regardless, so a second consume fails.
func (s *StateStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}

	key := statePrefix + ":" + state
	provider, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", ErrInvalidState
		}
		return "", fmt.Errorf("load state: %w", err)
	}
	_ = s.cache.Delete(ctx, key)
	return provider, nil
}
