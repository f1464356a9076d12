package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUploader is an in-process Uploader for development and tests.
// Presigned URLs are fake but stable, so callers can assert on them.
type MemoryUploader struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryUploader creates an empty in-process uploader.
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{objects: make(map[string][]byte)}
}

// Upload stores the document body in memory under the user's key.
func (u *MemoryUploader) Upload(_ context.Context, userID uuid.UUID, filename string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	key := ObjectKey(userID, filename)
	u.mu.Lock()
	u.objects[key] = data
	u.mu.Unlock()
	return key, nil
}

// Delete removes the object. Deleting an absent key is not an error.
func (u *MemoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

// PresignedURL returns a deterministic fake link for the stored object.
func (u *MemoryUploader) PresignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	u.mu.RLock()
	_, ok := u.objects[key]
	u.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(expires.Seconds())), nil
}

// Object returns the stored body for key. Test helper.
func (u *MemoryUploader) Object(key string) ([]byte, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Len reports the number of stored objects. Test helper.
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}

var _ Uploader = (*MemoryUploader)(nil)
