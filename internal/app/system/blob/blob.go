// Package blob stores uploaded images and returns the public URL the rest of
// the system records on profiles and communities.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageBytes bounds a single profile or community image.
const MaxImageBytes = 4 << 20

// ErrUnsupportedType is returned for content types that are not images.
var ErrUnsupportedType = errors.New("blob: unsupported content type")

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader stores one object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, prefix string, r io.Reader, size int64, contentType string) (string, error)
}

// Config describes an S3-compatible bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base that object keys are appended to. When empty it
	// is derived from Endpoint and Bucket.
	PublicURL string
}

// MinioUploader writes objects with minio-go.
type MinioUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinio creates the client and makes sure the bucket exists.
func NewMinio(ctx context.Context, cfg Config) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("blob: make bucket: %w", err)
		}
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &MinioUploader{client: client, bucket: cfg.Bucket, publicURL: base}, nil
}

// Upload stores r under prefix/<uuid><ext>.
func (u *MinioUploader) Upload(ctx context.Context, prefix string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := ObjectKey(prefix, contentType)
	if err != nil {
		return "", err
	}
	_, err = u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("blob: put %s: %w", key, err)
	}
	return u.publicURL + "/" + key, nil
}

// ObjectKey builds a collision-free key for an upload.
func ObjectKey(prefix, contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := extensions[ct]
	if !ok {
		return "", ErrUnsupportedType
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext), nil
}
