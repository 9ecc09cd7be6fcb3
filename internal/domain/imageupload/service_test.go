package imageupload

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/derma-advisor/pkg/errors"
	"github.com/yanqian/derma-advisor/pkg/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestService(storage ObjectStorage, maxBytes int64) *service {
	svc := NewService(Config{MaxBytes: maxBytes}, storage, logger.Discard()).(*service)
	svc.now = func() time.Time { return time.UnixMilli(1720000000000) }
	svc.newID = func() string { return "abc" }
	return svc
}

func TestUploadDataURL(t *testing.T) {
	storage := &stubStorage{url: "https://files.example.com/x"}
	svc := newTestService(storage, 0)

	resp, err := svc.Upload(context.Background(), Request{
		Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xffjpeg")),
	})
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/x", resp.FileURL)
	require.Equal(t, "uploaded-image-1720000000000-abc.jpg", resp.Key)
	require.Equal(t, "image/jpeg", storage.lastMime)
	require.Equal(t, []byte("\xff\xd8\xffjpeg"), storage.lastData)
}

func TestUploadBareBase64SniffsType(t *testing.T) {
	storage := &stubStorage{url: "u"}
	svc := newTestService(storage, 0)

	resp, err := svc.Upload(context.Background(), Request{Image: base64.StdEncoding.EncodeToString(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "image/png", resp.MimeType)
	require.Equal(t, "uploaded-image-1720000000000-abc.png", storage.lastKey)
}

func TestUploadUnknownContentDefaultsToPNG(t *testing.T) {
	storage := &stubStorage{url: "u"}
	resp, err := newTestService(storage, 0).Upload(context.Background(), Request{Image: base64.StdEncoding.EncodeToString([]byte("hello"))})
	require.NoError(t, err)
	require.Equal(t, "image/png", resp.MimeType)
}

func TestUploadValidation(t *testing.T) {
	svc := newTestService(&stubStorage{url: "u"}, 4)

	tests := map[string]Request{
		"missing":   {Image: ""},
		"not b64":   {Image: "data:image/png;base64,@@@"},
		"too large": {Image: base64.StdEncoding.EncodeToString(pngBytes)},
	}
	for name, req := range tests {
		_, err := svc.Upload(context.Background(), req)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), name)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	svc := newTestService(&stubStorage{err: errors.New("403 forbidden")}, 0)
	_, err := svc.Upload(context.Background(), Request{Image: base64.StdEncoding.EncodeToString(pngBytes)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpload))
	require.ErrorContains(t, err, "403 forbidden")
}

func TestUploadWithoutLinkFails(t *testing.T) {
	svc := newTestService(&stubStorage{}, 0)
	_, err := svc.Upload(context.Background(), Request{Image: base64.StdEncoding.EncodeToString(pngBytes)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpload))
}

func TestUploadFileIgnoresNonImageMime(t *testing.T) {
	storage := &stubStorage{url: "u"}
	resp, err := newTestService(storage, 0).UploadFile(context.Background(), FileRequest{
		Filename: "mole.png",
		MimeType: "application/octet-stream",
		Content:  pngBytes,
	})
	require.NoError(t, err)
	require.Equal(t, "image/png", resp.MimeType)
}

type stubStorage struct {
	url      string
	err      error
	lastKey  string
	lastData []byte
	lastMime string
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.lastKey, s.lastData, s.lastMime = key, data, mimeType
	if s.err != nil {
		return StoredObject{}, s.err
	}
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, URL: s.url}, nil
}
