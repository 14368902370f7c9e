package ports

import "context"

// BlobStore defines object storage for raw ingested documents.
type BlobStore interface {
	// Upload stores content under key with optional metadata.
	Upload(ctx context.Context, key string, content []byte, metadata map[string]string) error

	// Download retrieves the content stored under key.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
