package main

import (
	"context"
	"log/slog"

	"github.com/yanqian/derma-advisor/internal/bootstrap"
	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/imageupload"
	"github.com/yanqian/derma-advisor/internal/infra/config"
)

func provideAssessmentConfig(cfg *config.Config) assessment.Config {
	return cfg.Assessment()
}

func provideUploadConfig(cfg *config.Config) imageupload.Config {
	return bootstrap.UploadConfig(cfg)
}

func provideChatClient(cfg *config.Config, logger *slog.Logger) (assessment.ChatClient, error) {
	client, err := bootstrap.NewChatClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("completion client ready", "provider", cfg.LLM.Provider, "mole_model", cfg.Mole.Model, "plan_model", cfg.Plan.Model)
	return client, nil
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) (imageupload.ObjectStorage, error) {
	return bootstrap.NewObjectStorage(context.Background(), cfg, logger)
}
