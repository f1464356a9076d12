package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfill/inkfill/pkg/session"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lookups require both identifiers", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		userID := uuid.New()

		id, err := store.Create(ctx, userID, time.Now().Add(time.Hour), time.Now())
		require.NoError(t, err)

		_, err = store.Get(ctx, id, uuid.New())
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		sess, err := store.Get(ctx, id, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, sess.UserID)
	})

	t.Run("touch races never corrupt the row", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		userID := uuid.New()

		id, err := store.Create(ctx, userID, time.Now().Add(time.Hour), time.Now())
		require.NoError(t, err)

		done := make(chan struct{})
		for i := range 10 {
			go func(offset int) {
				defer func() { done <- struct{}{} }()
				_ = store.Touch(ctx, id, userID, time.Now().Add(time.Duration(offset)*time.Millisecond))
			}(i)
		}
		for range 10 {
			<-done
		}

		sess, err := store.Get(ctx, id, userID)
		require.NoError(t, err)
		assert.Equal(t, id, sess.ID)
		assert.Equal(t, userID, sess.UserID)
	})

	t.Run("delete is scoped and idempotent", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		userID := uuid.New()

		id, err := store.Create(ctx, userID, time.Now().Add(time.Hour), time.Now())
		require.NoError(t, err)

		// Wrong user id deletes nothing.
		require.NoError(t, store.Delete(ctx, id, uuid.New()))
		_, err = store.Get(ctx, id, userID)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id, userID))
		_, err = store.Get(ctx, id, userID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		// Deleting again is not an error.
		assert.NoError(t, store.Delete(ctx, id, userID))
	})
}

func TestMemoryUserStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("email uniqueness is case-insensitive", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryUserStore()

		_, err := store.Create(ctx, "Alice@Example.com", "Alice")
		require.NoError(t, err)

		_, err = store.Create(ctx, "alice@example.com", "Alice Again")
		assert.ErrorIs(t, err, session.ErrUserExists)
	})

	t.Run("lookup by email normalizes input", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryUserStore()

		created, err := store.Create(ctx, "  Bob@Example.COM ", "Bob")
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", created.Email)

		found, err := store.ByEmail(ctx, "BOB@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown lookups return UserNotFound", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryUserStore()

		_, err := store.ByID(ctx, uuid.New())
		assert.ErrorIs(t, err, session.ErrUserNotFound)

		_, err = store.ByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, session.ErrUserNotFound)
	})
}
