package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/noteduco342/groupmeet-backend/internal/config"
)

// IconPrefix is the key prefix under which group icons are stored.
const IconPrefix = "groups"

var ErrNotConfigured = errors.New("object storage not configured")

type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(cfg config.S3Config) (*S3Storage, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Storage{client: cl, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket on first start against a fresh MinIO.
func (s *S3Storage) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region})
}

// ObjectStat is the metadata the media endpoint needs for caching headers.
type ObjectStat struct {
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

func statFrom(info minio.ObjectInfo) ObjectStat {
	return ObjectStat{
		ETag:         info.ETag,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}
}

// PutObject stores an icon. Icon keys never get reused, so the object is
// marked immutable for downstream caches.
func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ObjectStat, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "private, max-age=31536000, immutable",
	})
	if err != nil {
		return ObjectStat{}, fmt.Errorf("put %s: %w", key, err)
	}
	return ObjectStat{ETag: info.ETag, Size: info.Size, ContentType: contentType, LastModified: time.Now().UTC()}, nil
}

func (s *S3Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, ObjectStat, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectStat{}, err
	}
	// GetObject is lazy; Stat is the first call that reaches the server.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectStat{}, err
	}
	return obj, statFrom(info), nil
}

func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// IsNotFound reports whether err is a missing-object response.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

var errInvalidKey = errors.New("invalid key")

// SafeJoinKey resolves a client supplied key below prefix. Keys that try to
// leave the prefix are rejected.
func SafeJoinKey(prefix string, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || strings.ContainsRune(key, '\\') {
		return "", errInvalidKey
	}
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if prefix != "" && !strings.HasPrefix(key, prefix+"/") {
		key = prefix + "/" + key
	}
	if _, err := url.Parse("/" + key); err != nil {
		return "", errInvalidKey
	}
	return key, nil
}
