package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"

	domain "github.com/yanqian/derma-advisor/internal/domain/imageupload"
)

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu      sync.RWMutex
	blobs   map[string]storedBlob
	baseURL string
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs storage. Links are baseURL + "/" + key.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://uploads"
	}
	return &MemoryStorage{blobs: make(map[string]storedBlob), baseURL: baseURL}
}

// Put stores the blob and returns metadata.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])
	copied := append([]byte(nil), data...)
	s.blobs[key] = storedBlob{data: copied, mimeType: mimeType, etag: etag}
	return domain.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
		URL:      s.baseURL + "/" + key,
	}, nil
}

// Get returns a copy of a stored blob and its content type.
func (s *MemoryStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), blob.data...), blob.mimeType, true
}

var _ domain.ObjectStorage = (*MemoryStorage)(nil)
