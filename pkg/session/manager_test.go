package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfill/inkfill/pkg/authtoken"
	"github.com/inkfill/inkfill/pkg/cookie"
	"github.com/inkfill/inkfill/pkg/session"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hmac"

type env struct {
	manager  *session.Manager
	sessions *session.MemoryStore
	users    *session.MemoryUserStore
	codec    *authtoken.Codec
	binding  *cookie.Binding
}

func newEnv(t *testing.T, opts ...session.Option) *env {
	t.Helper()

	codec, err := authtoken.New(testSecret)
	require.NoError(t, err)

	binding := cookie.New(cookie.WithLocal(true))
	sessions := session.NewMemoryStore()
	users := session.NewMemoryUserStore()

	return &env{
		manager:  session.NewManager(codec, binding, sessions, users, session.DefaultConfig(), opts...),
		sessions: sessions,
		users:    users,
		codec:    codec,
		binding:  binding,
	}
}

func (e *env) createUser(t *testing.T) *session.User {
	t.Helper()

	user, err := e.users.Create(context.Background(), "alice@example.com", "Alice")
	require.NoError(t, err)
	return user
}

// login performs a login and returns a request carrying the issued cookie.
func (e *env) login(t *testing.T, user *session.User, opts ...session.LoginOption) *http.Request {
	t.Helper()

	w := httptest.NewRecorder()
	_, err := e.manager.Login(context.Background(), w, user, opts...)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no cookie resolves anonymous", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		res := e.manager.Resolve(ctx, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, session.StateAnonymous, res.State)
		assert.False(t, res.IsAuthenticated())
		assert.NoError(t, res.Reason())
	})

	t.Run("login then request with cookie authenticates", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)

		r := e.login(t, user)
		res := e.manager.Resolve(ctx, r)

		require.True(t, res.IsAuthenticated())
		assert.Equal(t, user.ID, res.User.ID)
		assert.Equal(t, user.ID, res.Token.UserID)
		assert.Equal(t, res.Session.ID, res.Token.SessionID)

		// The token references an actual store row.
		row, err := e.sessions.Get(ctx, res.Session.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, row.UserID)
	})

	t.Run("garbage cookie is rejected silently", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: "not.a.token"})

		res := e.manager.Resolve(ctx, r)
		assert.Equal(t, session.StateRejected, res.State)
		assert.False(t, res.IsAuthenticated())
		assert.ErrorIs(t, res.Reason(), authtoken.ErrInvalidToken)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		foreign, err := authtoken.New("completely-different-key-also-long-enough")
		require.NoError(t, err)

		res := e.manager.Resolve(ctx, r)
		require.True(t, res.IsAuthenticated())

		forged, err := foreign.Sign(authtoken.Payload{Data: res.Token})
		require.NoError(t, err)

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: forged})

		res2 := e.manager.Resolve(ctx, r2)
		assert.Equal(t, session.StateRejected, res2.State)
	})

	t.Run("deleted user with stale cookie resolves anonymous", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		e.users.Delete(user.ID)

		res := e.manager.Resolve(ctx, r)
		assert.False(t, res.IsAuthenticated())
		assert.ErrorIs(t, res.Reason(), session.ErrUserNotFound)
	})

	t.Run("expired session resolves rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)

		sess := session.Session{
			ID:         uuid.New(),
			UserID:     user.ID,
			ExpiresAt:  time.Now().Add(-time.Second),
			LastSeenAt: time.Now().Add(-time.Hour),
			CreatedAt:  time.Now().Add(-time.Hour),
		}
		e.sessions.Put(sess)

		token, err := e.codec.Sign(authtoken.Payload{
			Data: authtoken.Data{UserID: user.ID, SessionID: sess.ID},
		})
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: token})

		res := e.manager.Resolve(ctx, r)
		assert.False(t, res.IsAuthenticated())
		assert.ErrorIs(t, res.Reason(), session.ErrSessionExpired)
	})

	t.Run("session id of another user does not authenticate", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		alice := e.createUser(t)
		bob, err := e.users.Create(ctx, "bob@example.com", "Bob")
		require.NoError(t, err)

		r := e.login(t, alice)
		res := e.manager.Resolve(ctx, r)
		require.True(t, res.IsAuthenticated())

		// Forge a token pairing bob's identity with alice's session.
		forged, err := e.codec.Sign(authtoken.Payload{
			Data: authtoken.Data{UserID: bob.ID, SessionID: res.Session.ID},
		})
		require.NoError(t, err)

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: forged})

		res2 := e.manager.Resolve(ctx, r2)
		assert.False(t, res2.IsAuthenticated())
		assert.ErrorIs(t, res2.Reason(), session.ErrSessionNotFound)
	})

	t.Run("resolve updates last seen", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		res := e.manager.Resolve(ctx, r)
		require.True(t, res.IsAuthenticated())
		firstSeen := res.Session.LastSeenAt

		time.Sleep(5 * time.Millisecond)

		res2 := e.manager.Resolve(ctx, r)
		require.True(t, res2.IsAuthenticated())
		assert.True(t, res2.Session.LastSeenAt.After(firstSeen))
	})

	t.Run("WithoutTouch skips last seen update", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		res := e.manager.Resolve(ctx, r, session.WithoutTouch())
		require.True(t, res.IsAuthenticated())

		row, err := e.sessions.Get(ctx, res.Session.ID, user.ID)
		require.NoError(t, err)
		assert.True(t, row.LastSeenAt.Equal(res.Session.LastSeenAt))
	})

	t.Run("touch failure does not break authentication", func(t *testing.T) {
		t.Parallel()

		codec, err := authtoken.New(testSecret)
		require.NoError(t, err)
		binding := cookie.New(cookie.WithLocal(true))
		users := session.NewMemoryUserStore()
		store := &failingTouchStore{Store: session.NewMemoryStore()}

		manager := session.NewManager(codec, binding, store, users, session.DefaultConfig())

		user, err := users.Create(ctx, "carol@example.com", "Carol")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		_, err = manager.Login(ctx, w, user)
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}

		res := manager.Resolve(ctx, r)
		assert.True(t, res.IsAuthenticated())
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sets cookie and returns default redirect", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)

		w := httptest.NewRecorder()
		redirect, err := e.manager.Login(ctx, w, user)
		require.NoError(t, err)
		assert.Equal(t, "/dashboard", redirect)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookie.DefaultName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].Expires.After(time.Now().Add(29*24*time.Hour)))
	})

	t.Run("caller-supplied redirect and expiry", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)

		custom := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
		w := httptest.NewRecorder()
		redirect, err := e.manager.Login(ctx, w, user,
			session.WithRedirect("/welcome"),
			session.WithExpiresAt(custom),
		)
		require.NoError(t, err)
		assert.Equal(t, "/welcome", redirect)

		r := httptest.NewRequest("GET", "/", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}
		res := e.manager.Resolve(ctx, r)
		require.True(t, res.IsAuthenticated())
		assert.True(t, res.Session.ExpiresAt.Equal(custom))
	})

	t.Run("store failure propagates and sets no cookie", func(t *testing.T) {
		t.Parallel()

		codec, err := authtoken.New(testSecret)
		require.NoError(t, err)
		binding := cookie.New(cookie.WithLocal(true))
		users := session.NewMemoryUserStore()
		store := &failingCreateStore{Store: session.NewMemoryStore()}

		manager := session.NewManager(codec, binding, store, users, session.DefaultConfig())

		user, err := users.Create(ctx, "dave@example.com", "Dave")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		_, err = manager.Login(ctx, w, user)
		assert.Error(t, err)
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deletes session and expires cookie", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		w := httptest.NewRecorder()
		redirect, err := e.manager.Logout(ctx, w, r)
		require.NoError(t, err)
		assert.Equal(t, "/", redirect)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.True(t, cookies[0].Expires.Before(time.Now()))

		// The old cookie no longer authenticates.
		res := e.manager.Resolve(ctx, r)
		assert.False(t, res.IsAuthenticated())
		assert.Equal(t, 0, e.sessions.Len())
	})

	t.Run("without prior login fails with InvalidSession", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		w := httptest.NewRecorder()
		_, err := e.manager.Logout(ctx, w, httptest.NewRequest("GET", "/", nil))
		assert.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("logout twice fails the second time", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		user := e.createUser(t)
		r := e.login(t, user)

		_, err := e.manager.Logout(ctx, httptest.NewRecorder(), r)
		require.NoError(t, err)

		_, err = e.manager.Logout(ctx, httptest.NewRecorder(), r)
		assert.ErrorIs(t, err, session.ErrInvalidSession)
	})
}

func TestRenewCookie(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	user := e.createUser(t)
	r := e.login(t, user)

	res := e.manager.Resolve(ctx, r)
	require.True(t, res.IsAuthenticated())

	w := httptest.NewRecorder()
	err := e.manager.RenewCookie(w, res.Session, res.Token)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Expires.Equal(res.Session.ExpiresAt.Truncate(time.Second)) ||
		cookies[0].Expires.Equal(res.Session.ExpiresAt))

	// The renewed cookie still authenticates.
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(cookies[0])
	res2 := e.manager.Resolve(ctx, r2)
	assert.True(t, res2.IsAuthenticated())
}

func TestConcurrentTouch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	user := e.createUser(t)
	r := e.login(t, user)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := e.manager.Resolve(ctx, r)
			assert.True(t, res.IsAuthenticated())
		}()
	}
	wg.Wait()

	// The row survives the races intact.
	res := e.manager.Resolve(ctx, r)
	require.True(t, res.IsAuthenticated())
	assert.Equal(t, user.ID, res.Session.UserID)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.createUser(t)

	var got session.Result
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous request passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		e.manager.Middleware(inner).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, got.IsAuthenticated())
		// Plain resolves never write cookies.
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("authenticated result reaches handler", func(t *testing.T) {
		r := e.login(t, user)
		w := httptest.NewRecorder()
		e.manager.Middleware(inner).ServeHTTP(w, r)

		require.True(t, got.IsAuthenticated())
		assert.Equal(t, user.ID, got.User.ID)
	})

	t.Run("RequireAuth redirects anonymous home", func(t *testing.T) {
		w := httptest.NewRecorder()
		chain := e.manager.Middleware(e.manager.RequireAuth(inner))
		chain.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

type failingTouchStore struct {
	session.Store
}

func (s *failingTouchStore) Touch(ctx context.Context, sessionID, userID uuid.UUID, lastSeenAt time.Time) error {
	return errors.New("store unavailable")
}

type failingCreateStore struct {
	session.Store
}

func (s *failingCreateStore) Create(ctx context.Context, userID uuid.UUID, expiresAt, lastSeenAt time.Time) (uuid.UUID, error) {
	return uuid.Nil, errors.New("store unavailable")
}
