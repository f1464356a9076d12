package forms

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/session"
)

// maxUploadSize caps filled-form uploads at 10 MiB.
const maxUploadSize = 10 << 20

// Handler exposes the filled-form workflow over HTTP. All routes
// require an authenticated session.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// NewHandler creates the HTTP handler for filled-form routes.
func NewHandler(service *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: service, log: log}
}

// Routes mounts the endpoints:
//
//	GET    /forms          list the user's filled forms
//	POST   /forms          upload a filled form (multipart "document")
//	DELETE /forms/{id}     remove a filled form
//	GET    /forms/download fresh download link for ?key=
func (h *Handler) Routes(r chi.Router) {
	r.Get("/forms", h.list)
	r.Post("/forms", h.store)
	r.Delete("/forms/{id}", h.remove)
	r.Get("/forms/download", h.downloadURL)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, h.service.ListFilled(r.Context(), user.ID))
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := session.UserFromContext(ctx)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	pdf, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	form, err := h.service.StoreFilled(ctx, user, header.Filename, pdf)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to store filled form",
			logger.UserID(user.ID),
			logger.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, form)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := session.UserFromContext(ctx)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid form id", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveFilled(ctx, user.ID, id); err != nil {
		if errors.Is(err, ErrFormNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.ErrorContext(ctx, "failed to remove filled form",
			logger.UserID(user.ID),
			logger.Error(err))
		http.Error(w, "remove failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := session.UserFromContext(ctx)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	// Ownership comes from the key itself: every document lives under
	// the owner's "user-<id>/" prefix. The cached list is not consulted
	// here, so links keep working after a cache flush.
	if !strings.HasPrefix(key, "user-"+user.ID.String()+"/") {
		http.NotFound(w, r)
		return
	}

	url, err := h.service.DownloadURL(ctx, key)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to presign download",
			slog.String("key", key),
			logger.Error(err))
		http.Error(w, "download unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
