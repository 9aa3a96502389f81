package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"kiosk_checkin_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOPhotoStore implements PhotoStore against a MinIO/S3 endpoint.
type MinIOPhotoStore struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewMinIOPhotoStore creates the photo store, or an error when MinIO is not
// configured.
func NewMinIOPhotoStore(cfg config.MinIOConfig) (*MinIOPhotoStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOPhotoStore{
		client:      client,
		bucket:      cfg.GetMinioBucketModelPhotos(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucket creates the model-photos bucket if it does not exist.
func (s *MinIOPhotoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// UploadPhoto validates and stores one photo, returning its storage key.
// Keys carry a UUID fragment so concurrent check-ins never overwrite each
// other's photos.
func (s *MinIOPhotoStore) UploadPhoto(ctx context.Context, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if err := validatePhoto(contentType, size, s.maxFileSize); err != nil {
		return "", err
	}

	ext := path.Ext(fileName)
	base := strings.TrimSuffix(path.Base(fileName), ext)
	fileKey := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// PhotoURL returns a presigned GET link for the given storage key.
func (s *MinIOPhotoStore) PhotoURL(ctx context.Context, fileKey string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PhotoURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate photo URL: %w", err)
	}
	return presigned.String(), nil
}
