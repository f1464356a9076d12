package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/inkfill/inkfill/pkg/pg"
	"github.com/inkfill/inkfill/pkg/redis"
	"github.com/inkfill/inkfill/pkg/session"
	"github.com/inkfill/inkfill/svc/auth"
	"github.com/inkfill/inkfill/svc/forms"
)

func newRouter(
	manager *session.Manager,
	authService *auth.Service,
	formsService *forms.Service,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
	log *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(manager.Middleware)

	r.Get("/", index)
	r.Get("/healthz", healthz(pool, redisClient))

	auth.NewHandler(authService, log).Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(manager.RequireAuth)
		r.Get("/dashboard", dashboard(formsService))
		forms.NewHandler(formsService, log).Routes(r)
	})

	return r
}

func index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	res := session.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.IsAuthenticated() {
		fmt.Fprintf(w, `<p>Signed in as %s. <a href="/dashboard">Dashboard</a> · <a href="/logout">Sign out</a></p>`,
			res.User.Email)
		return
	}
	fmt.Fprint(w, `<p><a href="/auth/google">Sign in with Google</a> · <a href="/auth/github">Sign in with GitHub</a></p>`)
}

func dashboard(formsService *forms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := session.UserFromContext(r.Context())

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{
				"id":    user.ID.String(),
				"email": user.Email,
				"name":  user.Name,
			},
			"filled_forms": formsService.ListFilled(r.Context(), user.ID),
		})
	}
}

func healthz(pool *pgxpool.Pool, redisClient *goredis.Client) http.HandlerFunc {
	pgCheck := pg.Healthcheck(pool)
	redisCheck := redis.Healthcheck(redisClient)

	return func(w http.ResponseWriter, r *http.Request) {
		if err := pgCheck(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := redisCheck(r.Context()); err != nil {
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
