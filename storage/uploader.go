package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Key is what registrations
// persist; Location and ETag come back from the bucket.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object store behind army-list attachments. The R2
// implementation satisfies it; services depend only on this interface.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL maps a stored key to its public, escaped URL.
	GetPublicURL(key string) string
}
