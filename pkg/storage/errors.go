package storage

import "errors"

var (
	ErrInvalidConfig      = errors.New("storage.invalid_config")
	ErrObjectNotFound     = errors.New("storage.object_not_found")
	ErrBucketNotFound     = errors.New("storage.bucket_not_found")
	ErrAccessDenied       = errors.New("storage.access_denied")
	ErrServiceUnavailable = errors.New("storage.service_unavailable")
	ErrUploadFailed       = errors.New("storage.upload_failed")
)
