package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// S3Client is the subset of the S3 API the uploader uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner generates time-limited download links.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest carries the signed URL produced by a Presigner.
type PresignedRequest struct {
	URL string
}

// sdkPresigner adapts s3.PresignClient to the Presigner interface.
type sdkPresigner struct {
	inner *s3.PresignClient
}

func (p sdkPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.inner.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}

// Config holds S3 connection settings. Endpoint and ForcePathStyle
// support S3-compatible services like MinIO in development.
type Config struct {
	Bucket         string `env:"S3_BUCKET,required"`
	Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// S3Uploader implements Uploader against an S3 bucket. It is safe for
// concurrent use.
type S3Uploader struct {
	client    S3Client
	presigner Presigner
	bucket    string
}

// S3Option configures an S3Uploader.
type S3Option func(*s3Options)

type s3Options struct {
	client    S3Client
	presigner Presigner
}

// WithS3Client sets a pre-configured S3 client. Useful for testing.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// WithPresigner sets a custom presigner. Useful for testing.
func WithPresigner(p Presigner) S3Option {
	return func(o *s3Options) {
		o.presigner = p
	}
}

// NewS3Uploader creates an uploader for the configured bucket.
func NewS3Uploader(ctx context.Context, cfg Config, opts ...S3Option) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	sign := options.presigner
	if client == nil {
		awsOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}

		sdkClient := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
		client = sdkClient
		if sign == nil {
			sign = sdkPresigner{inner: s3.NewPresignClient(sdkClient)}
		}
	}

	return &S3Uploader{
		client:    client,
		presigner: sign,
		bucket:    cfg.Bucket,
	}, nil
}

// Upload stores the document under the user's prefix and returns the
// object key.
func (u *S3Uploader) Upload(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(userID, filename)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", classifyS3Error(err, "upload")
	}
	return key, nil
}

// Delete removes the object. Path traversal in keys is rejected.
func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyS3Error(err, "delete")
	}
	return nil
}

// PresignedURL returns a time-limited download link for the object.
func (u *S3Uploader) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if u.presigner == nil {
		return "", fmt.Errorf("%w: presigner not configured", ErrInvalidConfig)
	}

	req, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", classifyS3Error(err, "presign")
	}
	return req.URL, nil
}

// classifyS3Error converts SDK errors to package sentinels.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		case "NoSuchKey":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, err)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("%w: %s operation failed (code: %s): %v", ErrUploadFailed, operation, apiErr.ErrorCode(), err)
		}
	}

	return fmt.Errorf("%w: %s operation failed: %v", ErrUploadFailed, operation, err)
}

var _ Uploader = (*S3Uploader)(nil)
