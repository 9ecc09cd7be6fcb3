package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/imageupload"
	"github.com/yanqian/derma-advisor/internal/infra/config"
	"github.com/yanqian/derma-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/derma-advisor/internal/infra/llm/gemini"
	"github.com/yanqian/derma-advisor/internal/infra/storage"
)

// NewChatClient returns the completion client for the configured provider.
func NewChatClient(ctx context.Context, cfg *config.Config) (assessment.ChatClient, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

// NewObjectStorage returns the blob storage for the configured upload backend.
func NewObjectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imageupload.ObjectStorage, error) {
	up := cfg.Upload
	switch up.Backend {
	case config.BackendR2:
		store, err := storage.NewR2Storage(storage.R2Options{
			Endpoint:      up.R2.Endpoint,
			AccessKey:     up.R2.AccessKey,
			SecretKey:     up.R2.SecretKey,
			Bucket:        up.R2.Bucket,
			Region:        up.R2.Region,
			PublicBaseURL: up.R2.PublicBaseURL,
			PresignTTL:    up.R2.PresignTTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendDrive:
		store, err := storage.NewDriveStorage(ctx, storage.DriveOptions{
			ClientEmail: up.Drive.ClientEmail,
			PrivateKey:  up.Drive.PrivateKey,
			FolderID:    up.Drive.FolderID,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		logger.Warn("using in-memory upload storage, files are lost on restart")
		return storage.NewMemoryStorage(up.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported upload backend %q", up.Backend)
	}
}

// UploadConfig converts the upload section into domain settings.
func UploadConfig(cfg *config.Config) imageupload.Config {
	return imageupload.Config{MaxBytes: cfg.Upload.MaxBytes}
}
