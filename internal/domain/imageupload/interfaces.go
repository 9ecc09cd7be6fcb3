package imageupload

import "context"

// ObjectStorage abstracts the blob storage service (R2, Google Drive, memory).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
	URL      string
}
