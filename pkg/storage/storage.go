// Package storage keeps filled form documents in an S3 bucket. Each
// object lives under a per-user prefix so one user's documents never
// collide with another's, and downloads go out as short-lived
// presigned links rather than public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader stores and retrieves filled form documents.
type Uploader interface {
	Upload(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// ObjectKey builds the bucket key for a user's document. The layout is
// "user-<id>/file-<name>" so listing a user's prefix yields exactly
// their documents.
func ObjectKey(userID uuid.UUID, filename string) string {
	return fmt.Sprintf("user-%s/file-%s", userID, sanitizeObjectName(filename))
}

var unsafeObjectChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeObjectName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeObjectChars.ReplaceAllString(name, "")
	if name == "" {
		name = "document"
	}
	return name
}
