// Package forms handles filled form documents: uploading the finished
// PDF, remembering it on the user's list, and mailing the download
// link.
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkfill/inkfill/pkg/cache"
	"github.com/inkfill/inkfill/pkg/email"
	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/session"
	"github.com/inkfill/inkfill/pkg/storage"
)

const listKeyPrefix = "filled-forms"

// ErrFormNotFound indicates no entry with the given id on the user's list.
var ErrFormNotFound = errors.New("forms.not_found")

// FilledForm is one entry on a user's list of completed documents.
type FilledForm struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Key      string    `json:"key"`
	FilledAt time.Time `json:"filled_at"`
}

// Service wires storage, the shared cache, and mail delivery into the
// filled-form workflow.
type Service struct {
	uploader storage.Uploader
	cache    cache.Cache
	sender   email.Sender
	log      *slog.Logger
	linkTTL  time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithLinkTTL sets the lifetime of emailed download links.
func WithLinkTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.linkTTL = ttl
	}
}

// WithClock replaces the service time source. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the filled-form service.
func NewService(uploader storage.Uploader, c cache.Cache, sender email.Sender, opts ...Option) *Service {
	s := &Service{
		uploader: uploader,
		cache:    c,
		sender:   sender,
		log:      slog.Default(),
		linkTTL:  24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreFilled uploads the finished document, appends it to the user's
// list, and emails the user a download link. Upload failures are
// returned; the list update and the email are best effort and only
// logged, since the document itself is already safe in the bucket.
func (s *Service) StoreFilled(ctx context.Context, user *session.User, formName string, pdf []byte) (FilledForm, error) {
	key, err := s.uploader.Upload(ctx, user.ID, formName, bytes.NewReader(pdf), "application/pdf")
	if err != nil {
		return FilledForm{}, fmt.Errorf("upload filled form: %w", err)
	}

	form := FilledForm{
		ID:       uuid.New(),
		Name:     formName,
		Key:      key,
		FilledAt: s.now().UTC(),
	}

	if err := s.appendToList(ctx, user.ID, form); err != nil {
		s.log.WarnContext(ctx, "failed to update filled-forms list",
			logger.UserID(user.ID),
			logger.Error(err))
	}

	if err := s.emailLink(ctx, user, form); err != nil {
		s.log.WarnContext(ctx, "failed to email filled-form link",
			logger.UserID(user.ID),
			logger.Error(err))
	}

	return form, nil
}

// ListFilled returns the user's completed documents. A cache miss or a
// corrupt list yields an empty slice, never an error.
func (s *Service) ListFilled(ctx context.Context, userID uuid.UUID) []FilledForm {
	raw, err := s.cache.Get(ctx, listKey(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "failed to read filled-forms list",
				logger.UserID(userID),
				logger.Error(err))
		}
		return []FilledForm{}
	}

	var forms []FilledForm
	if err := json.Unmarshal([]byte(raw), &forms); err != nil {
		s.log.WarnContext(ctx, "corrupt filled-forms list, resetting",
			logger.UserID(userID),
			logger.Error(err))
		return []FilledForm{}
	}
	return forms
}

// RemoveFilled deletes a document from the bucket and drops it from the
// user's list. The bucket delete is authoritative; a failed list update
// leaves a dangling entry that only yields a dead link, so it is logged
// rather than returned.
func (s *Service) RemoveFilled(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	list := s.ListFilled(ctx, userID)
	idx := -1
	for i, f := range list {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrFormNotFound
	}

	if err := s.uploader.Delete(ctx, list[idx].Key); err != nil {
		return fmt.Errorf("delete filled form: %w", err)
	}

	if err := s.writeList(ctx, userID, append(list[:idx], list[idx+1:]...)); err != nil {
		s.log.WarnContext(ctx, "failed to update filled-forms list",
			logger.UserID(userID),
			logger.Error(err))
	}
	return nil
}

// DownloadURL returns a fresh presigned link for a stored document.
func (s *Service) DownloadURL(ctx context.Context, key string) (string, error) {
	return s.uploader.PresignedURL(ctx, key, s.linkTTL)
}

func (s *Service) appendToList(ctx context.Context, userID uuid.UUID, form FilledForm) error {
	return s.writeList(ctx, userID, append(s.ListFilled(ctx, userID), form))
}

func (s *Service) writeList(ctx context.Context, userID uuid.UUID, forms []FilledForm) error {
	data, err := json.Marshal(forms)
	if err != nil {
		return fmt.Errorf("marshal list: %w", err)
	}
	// No TTL: the list lives until the retention job removes the user.
	return s.cache.Set(ctx, listKey(userID), string(data), 0)
}

func (s *Service) emailLink(ctx context.Context, user *session.User, form FilledForm) error {
	url, err := s.uploader.PresignedURL(ctx, form.Key, s.linkTTL)
	if err != nil {
		return fmt.Errorf("presign link: %w", err)
	}

	msg, err := email.FilledFormMessage(user.Email, user.Name, form.Name, url)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

func listKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", listKeyPrefix, userID)
}
