// Package storage provides the object-storage adapter for model photos
// attached to check-in submissions.
package storage

import (
	"context"
	"io"
	"time"
)

// PhotoURLTTL is how long a presigned photo link stays valid. Long enough
// for the CRM to fetch the image after a lead update.
const PhotoURLTTL = 24 * time.Hour

// PhotoStore stores model photos and hands out fetchable links.
type PhotoStore interface {
	// UploadPhoto stores one photo under the model-photos bucket and
	// returns its storage key.
	UploadPhoto(ctx context.Context, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// PhotoURL returns a presigned link for the given storage key.
	PhotoURL(ctx context.Context, fileKey string) (string, error)

	// EnsureBucket creates the model-photos bucket if it does not exist.
	EnsureBucket(ctx context.Context) error
}
