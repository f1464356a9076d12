package session

import "net/http"

// Middleware resolves the session cookie once per request and stores the
// result on the context. Rejected cookies fall through as anonymous; the
// response is never touched here (cookies are written only at login,
// logout and renewal).
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := m.Resolve(r.Context(), r)
		next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), res)))
	})
}

// RequireAuth redirects unauthenticated requests home. It expects
// Middleware to have run earlier in the chain.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsAuthenticated() {
			http.Redirect(w, r, m.config.LogoutRedirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
