package session

import "context"

type resultContextKey struct{}

// WithResult stores an authentication result on the context.
func WithResult(ctx context.Context, res Result) context.Context {
	return context.WithValue(ctx, resultContextKey{}, res)
}

// FromContext retrieves the authentication result for the request.
// An absent result behaves as anonymous.
func FromContext(ctx context.Context) Result {
	res, ok := ctx.Value(resultContextKey{}).(Result)
	if !ok {
		return anonymous()
	}
	return res
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	res := FromContext(ctx)
	if !res.IsAuthenticated() {
		return nil
	}
	return res.User
}
