package storage

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/derma-advisor/pkg/logger"
)

func TestMemoryStoragePutAndGet(t *testing.T) {
	store := NewMemoryStorage("")
	obj, err := store.Put(context.Background(), "a.png", []byte("img"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "memory://uploads/a.png", obj.URL)
	require.Equal(t, int64(3), obj.Size)
	require.NotEmpty(t, obj.ETag)

	data, mimeType, ok := store.Get("a.png")
	require.True(t, ok)
	require.Equal(t, []byte("img"), data)
	require.Equal(t, "image/png", mimeType)

	_, _, ok = store.Get("missing")
	require.False(t, ok)
}

func TestSanitizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                                     "",
		"https://acct.r2.cloudflarestorage.com": "acct.r2.cloudflarestorage.com",
		"http://localhost:9000/bucket":          "localhost:9000",
		"  minio:9000 ":                         "minio:9000",
	}
	for in, want := range cases {
		require.Equal(t, want, sanitizeEndpoint(in), in)
	}
}

func TestNormalizePrivateKey(t *testing.T) {
	require.Equal(t, "line1\nline2\n", NormalizePrivateKey(`line1\nline2\n`))
}

func TestNewDriveStorageRequiresCredentials(t *testing.T) {
	_, err := NewDriveStorage(context.Background(), DriveOptions{FolderID: "f"}, logger.Discard())
	require.Error(t, err)

	_, err = NewDriveStorage(context.Background(), DriveOptions{ClientEmail: "a@b", PrivateKey: "k"}, logger.Discard())
	require.Error(t, err)
}

func TestDriveStoragePutUploadsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		assert.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		metaPart, err := reader.NextPart()
		assert.NoError(t, err)
		var meta driveFileMetadata
		assert.NoError(t, json.NewDecoder(metaPart).Decode(&meta))
		assert.Equal(t, "key.png", meta.Name)
		assert.Equal(t, []string{"folder-1"}, meta.Parents)

		mediaPart, err := reader.NextPart()
		assert.NoError(t, err)
		assert.Equal(t, "image/png", mediaPart.Header.Get("Content-Type"))
		body, _ := io.ReadAll(mediaPart)
		assert.Equal(t, "pixels", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-9","webViewLink":"https://drive/view","webContentLink":"https://drive/download"}`))
	}))
	defer srv.Close()

	store := newDriveStorage(srv.Client(), srv.URL, "folder-1", logger.Discard())
	obj, err := store.Put(context.Background(), "key.png", []byte("pixels"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "file-9", obj.Key)
	require.Equal(t, "https://drive/download", obj.URL)
	require.Equal(t, int64(6), obj.Size)
}

func TestDriveStoragePutReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	}))
	defer srv.Close()

	store := newDriveStorage(srv.Client(), srv.URL, "folder-1", logger.Discard())
	_, err := store.Put(context.Background(), "key.png", []byte("pixels"), "image/png")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=403")
}

func TestDriveStoragePutRequiresContentLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"file-9"}`))
	}))
	defer srv.Close()

	store := newDriveStorage(srv.Client(), srv.URL, "folder-1", logger.Discard())
	_, err := store.Put(context.Background(), "key.png", []byte("pixels"), "image/png")
	require.Error(t, err)
}
