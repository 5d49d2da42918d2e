package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/JaimeStill/job-board/pkg/lifecycle"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// s3 stores blobs as objects in one bucket of an S3-compatible store.
type s3 struct {
	client *minio.Client
	cfg    *Config
	logger *slog.Logger
}

func newS3(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	return &s3{
		client: client,
		cfg:    cfg,
		logger: logger.With("system", "storage", "backend", "s3"),
	}, nil
}

// Start ensures the bucket exists on startup.
func (s *s3) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting storage system", "endpoint", s.cfg.S3.Endpoint, "bucket", s.cfg.S3.Bucket)

	lc.OnStartup("storage", func(ctx context.Context) error {
		exists, err := s.client.BucketExists(ctx, s.cfg.S3.Bucket)
		if err != nil {
			s.logger.Error("bucket check failed", "error", err)
			return mapS3Error(err, "bucket exists")
		}
		if exists {
			s.logger.Info("storage bucket ready")
			return nil
		}
		if err := s.client.MakeBucket(ctx, s.cfg.S3.Bucket, minio.MakeBucketOptions{Region: s.cfg.S3.Region}); err != nil {
			s.logger.Error("bucket creation failed", "error", err)
			return mapS3Error(err, "make bucket")
		}
		s.logger.Info("storage bucket created")
		return nil
	})

	return nil
}

func (s *s3) Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.cfg.S3.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapS3Error(err, "put object")
	}
	return nil
}

func (s *s3) Retrieve(ctx context.Context, key string) ([]byte, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.cfg.S3.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Error(err, "get object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapS3Error(err, "read object")
	}
	return data, nil
}

// Delete succeeds for absent objects, matching S3 semantics.
func (s *s3) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.cfg.S3.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if mapS3Error(err, "") == ErrNotFound {
			return nil
		}
		return mapS3Error(err, "remove object")
	}
	return nil
}

func (s *s3) Validate(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *s3) Stat(ctx context.Context, key string) (*Info, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.StatObject(ctx, s.cfg.S3.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapS3Error(err, "stat object")
	}

	return &Info{
		Key:         key,
		Size:        obj.Size,
		ContentType: obj.ContentType,
		Updated:     obj.LastModified,
	}, nil
}

// URL presigns a GET for the configured expiry.
func (s *s3) URL(ctx context.Context, key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, s.cfg.S3.Bucket, key, s.cfg.URLExpiryDuration(), url.Values{})
	if err != nil {
		return "", mapS3Error(err, "presign object")
	}
	return u.String(), nil
}

func mapS3Error(err error, action string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	case "AccessDenied":
		return ErrPermissionDenied
	case "InvalidObjectName", "KeyTooLongError":
		return ErrInvalidKey
	}
	return fmt.Errorf("%s: %w", action, err)
}
