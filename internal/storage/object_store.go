package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/henningsieh/growagram/internal/config"
)

// UploadOptions describe how the store should treat the object. AutoOptimize
// asks the image CDN in front of the bucket to transcode quality and format
// on delivery.
type UploadOptions struct {
	ContentType  string
	AutoOptimize bool
}

// UploadInfo is what a successful upload hands back: the object key the file
// lives under and the externally resolvable URL.
type UploadInfo struct {
	PublicID  string
	SecureURL string
	Size      int64
}

// Uploader is the slice of the object store the upload coordinator needs.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, opts UploadOptions) (UploadInfo, error)
}

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.cfg.Bucket); err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func (s *ObjectStore) Upload(ctx context.Context, key string, data []byte, opts UploadOptions) (UploadInfo, error) {
	putOpts := minio.PutObjectOptions{
		ContentType: opts.ContentType,
	}
	if opts.AutoOptimize {
		putOpts.UserMetadata = map[string]string{
			"quality": "auto",
			"format":  "auto",
		}
	}

	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("put object: %w", err)
	}

	return UploadInfo{
		PublicID:  key,
		SecureURL: s.PublicURL(key),
		Size:      info.Size,
	}, nil
}

// PublicURL builds the externally resolvable URL for an object key. A CDN
// base URL takes precedence over the raw endpoint.
func (s *ObjectStore) PublicURL(key string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		base = s.cfg.Endpoint
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, key)
}
