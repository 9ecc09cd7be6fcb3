package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	domain "github.com/yanqian/derma-advisor/internal/domain/imageupload"
)

const (
	driveFileScope     = "https://www.googleapis.com/auth/drive.file"
	driveUploadBaseURL = "https://www.googleapis.com/upload/drive/v3/files"
)

// DriveOptions configures the Google Drive adapter with service account credentials.
type DriveOptions struct {
	ClientEmail string
	PrivateKey  string
	FolderID    string
}

// DriveStorage uploads blobs into a Google Drive folder.
type DriveStorage struct {
	httpClient *http.Client
	uploadURL  string
	folderID   string
	logger     *slog.Logger
}

// NewDriveStorage builds an adapter whose HTTP client signs requests with a
// service account JWT.
func NewDriveStorage(ctx context.Context, opts DriveOptions, logger *slog.Logger) (*DriveStorage, error) {
	if strings.TrimSpace(opts.ClientEmail) == "" || strings.TrimSpace(opts.PrivateKey) == "" {
		return nil, fmt.Errorf("google drive credentials are not configured")
	}
	if strings.TrimSpace(opts.FolderID) == "" {
		return nil, fmt.Errorf("google drive folder id is not configured")
	}
	cfg := &jwt.Config{
		Email:      opts.ClientEmail,
		PrivateKey: []byte(NormalizePrivateKey(opts.PrivateKey)),
		Scopes:     []string{driveFileScope},
		TokenURL:   google.JWTTokenURL,
	}
	return newDriveStorage(cfg.Client(ctx), driveUploadBaseURL, opts.FolderID, logger), nil
}

func newDriveStorage(client *http.Client, uploadURL, folderID string, logger *slog.Logger) *DriveStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriveStorage{
		httpClient: client,
		uploadURL:  uploadURL,
		folderID:   folderID,
		logger:     logger.With("component", "storage.drive"),
	}
}

// NormalizePrivateKey expands literal "\n" sequences that env files use for PEM keys.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

type driveFileMetadata struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
}

type driveFile struct {
	ID             string `json:"id"`
	WebViewLink    string `json:"webViewLink"`
	WebContentLink string `json:"webContentLink"`
}

// Put creates the file with a multipart upload and returns its download link.
func (s *DriveStorage) Put(ctx context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	body, contentType, err := encodeMultipartUpload(driveFileMetadata{
		Name:     key,
		Parents:  []string{s.folderID},
		MimeType: mimeType,
	}, data, mimeType)
	if err != nil {
		return domain.StoredObject{}, err
	}

	endpoint := s.uploadURL + "?uploadType=multipart&fields=id,webViewLink,webContentLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("build drive upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("drive upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return domain.StoredObject{}, fmt.Errorf("drive upload failed: status=%d body=%s", resp.StatusCode, string(payload))
	}
	var file driveFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return domain.StoredObject{}, fmt.Errorf("decode drive file: %w", err)
	}
	if file.WebContentLink == "" {
		return domain.StoredObject{}, fmt.Errorf("drive upload returned no content link for file %q", file.ID)
	}
	s.logger.Debug("drive file created", "id", file.ID, "view_link", file.WebViewLink)

	return domain.StoredObject{
		Key:      file.ID,
		Size:     int64(len(data)),
		MimeType: mimeType,
		URL:      file.WebContentLink,
	}, nil
}

func encodeMultipartUpload(meta driveFileMetadata, data []byte, mimeType string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", fmt.Errorf("create metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", fmt.Errorf("encode metadata: %w", err)
	}

	mediaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return nil, "", fmt.Errorf("create media part: %w", err)
	}
	if _, err := mediaPart.Write(data); err != nil {
		return nil, "", fmt.Errorf("write media part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, "multipart/related; boundary=" + w.Boundary(), nil
}

var _ domain.ObjectStorage = (*DriveStorage)(nil)
