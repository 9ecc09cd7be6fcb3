package imageupload

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/derma-advisor/pkg/errors"
)

const defaultMimeType = "image/png"

var dataURLPrefix = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,`)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/bmp":  ".bmp",
}

// Service proxies image uploads to blob storage.
type Service interface {
	Upload(ctx context.Context, req Request) (Response, error)
	UploadFile(ctx context.Context, req FileRequest) (Response, error)
}

type service struct {
	cfg     Config
	storage ObjectStorage
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService wires the upload domain.
func NewService(cfg Config, storage ObjectStorage, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		storage: storage,
		logger:  logger.With("component", "imageupload.service"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func (s *service) Upload(ctx context.Context, req Request) (Response, error) {
	image := strings.TrimSpace(req.Image)
	if image == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "image data is required", nil)
	}
	data, mimeType, err := decodeImage(image)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "image data is not valid base64", err)
	}
	return s.store(ctx, data, mimeType)
}

func (s *service) UploadFile(ctx context.Context, req FileRequest) (Response, error) {
	mimeType := strings.TrimSpace(req.MimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}
	return s.store(ctx, req.Content, mimeType)
}

func (s *service) store(ctx context.Context, data []byte, mimeType string) (Response, error) {
	if len(data) == 0 {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "image data is required", nil)
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxBytes), nil)
	}
	if mimeType == "" {
		mimeType = sniffMimeType(data)
	}

	key := fmt.Sprintf("uploaded-image-%d-%s%s", s.now().UnixMilli(), s.newID(), extensionFor(mimeType))
	obj, err := s.storage.Put(ctx, key, data, mimeType)
	if err != nil {
		s.logger.Error("image upload failed", "key", key, "error", err)
		return Response{}, apperrors.Wrap(apperrors.CodeUpload, "failed to upload image", err)
	}
	if obj.URL == "" {
		s.logger.Error("image upload returned no link", "key", key)
		return Response{}, apperrors.Wrap(apperrors.CodeUpload, "failed to upload image", fmt.Errorf("storage returned no link for %s", key))
	}
	s.logger.Info("image uploaded", "key", obj.Key, "size", obj.Size, "mime_type", mimeType)

	return Response{
		FileURL:  obj.URL,
		Key:      obj.Key,
		Size:     obj.Size,
		MimeType: mimeType,
	}, nil
}

func decodeImage(raw string) ([]byte, string, error) {
	mimeType := ""
	if m := dataURLPrefix.FindStringSubmatch(raw); m != nil {
		mimeType = strings.ToLower(m[1])
		raw = raw[len(m[0]):]
	}
	raw = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, raw)

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(raw)
		if rawErr != nil {
			return nil, "", err
		}
	}
	return data, mimeType, nil
}

func sniffMimeType(data []byte) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return defaultMimeType
}

func extensionFor(mimeType string) string {
	if ext, ok := extensions[mimeType]; ok {
		return ext
	}
	return extensions[defaultMimeType]
}
