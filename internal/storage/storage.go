package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations. The
// resource lifecycle service depends on this interface only; tests substitute
// an in-memory fake.
type FileStorage interface {
	// Upload writes data under objectKey with the declared content type and
	// a user metadata blob. The caller must not persist a database record
	// referencing objectKey unless Upload returned nil.
	Upload(ctx context.Context, objectKey string, data []byte, contentType string, metadata map[string]string) error

	// GeneratePresignedGetURL creates a temporary URL that allows GET requests
	// for viewing an object inline.
	GeneratePresignedGetURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL is GeneratePresignedGetURL with a forced
	// attachment content disposition carrying the display filename.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, filename string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// ListObjects returns every object key under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// Bucket returns the configured bucket name.
	Bucket() string
}
