package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/session"
)

// Handler exposes the sign-in flow over HTTP.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// NewHandler creates the HTTP handler for the sign-in routes.
func NewHandler(service *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: service, log: log}
}

// Routes mounts the sign-in endpoints:
//
//	GET /auth/{provider}          start the flow
//	GET /auth/{provider}/callback complete it
//	GET /logout                   end the session
func (h *Handler) Routes(r chi.Router) {
	r.Get("/auth/{provider}", h.start)
	r.Get("/auth/{provider}/callback", h.callback)
	r.Get("/logout", h.logout)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	url, err := h.service.AuthURL(r.Context(), provider)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			http.NotFound(w, r)
			return
		}
		h.log.ErrorContext(r.Context(), "failed to start sign-in",
			slog.String("provider", provider),
			logger.Error(err))
		http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	redirect, err := h.service.HandleCallback(ctx, w, provider, code, state)
	if err != nil {
		h.log.WarnContext(ctx, "sign-in callback rejected",
			slog.String("provider", provider),
			logger.Error(err))
		// The browser lands back on the public page regardless of why
		// the callback failed; details stay in the logs.
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.service.Logout(ctx, w, r)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		h.log.ErrorContext(ctx, "logout failed", logger.Error(err))
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}
