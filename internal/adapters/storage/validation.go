package storage

import (
	"fmt"
	"strings"
)

// allowedPhotoTypes lists the MIME types accepted for model photos.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// validatePhoto checks content type and size before an upload is attempted.
func validatePhoto(contentType string, size, maxSize int64) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedPhotoTypes[normalized] {
		return fmt.Errorf("content type %q is not an accepted photo format", contentType)
	}
	if size <= 0 {
		return fmt.Errorf("photo size must be greater than 0")
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("photo size %d bytes exceeds maximum of %d bytes", size, maxSize)
	}
	return nil
}
