// Hand-maintained mirror of wire.go; keep provider order in sync when wire.go changes.

//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/yanqian/derma-advisor/internal/bootstrap"
	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/imageupload"
	"github.com/yanqian/derma-advisor/internal/infra/config"
	"github.com/yanqian/derma-advisor/internal/interface/http"
	"github.com/yanqian/derma-advisor/pkg/logger"
	"github.com/yanqian/derma-advisor/pkg/metrics"
)

// Injectors from wire.go:

func initializeApp() (*bootstrap.App, error) {
	configConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	slogLogger := logger.New()
	assessmentConfig := provideAssessmentConfig(configConfig)
	chatClient, err := provideChatClient(configConfig, slogLogger)
	if err != nil {
		return nil, err
	}
	tokenCounter := metrics.NewTokenCounter(slogLogger)
	service := assessment.NewService(assessmentConfig, chatClient, tokenCounter, slogLogger)
	imageuploadConfig := provideUploadConfig(configConfig)
	objectStorage, err := provideObjectStorage(configConfig, slogLogger)
	if err != nil {
		return nil, err
	}
	imageuploadService := imageupload.NewService(imageuploadConfig, objectStorage, slogLogger)
	handler := http.NewHandler(service, imageuploadService, slogLogger)
	server := http.NewRouter(configConfig, handler, slogLogger)
	app := bootstrap.NewApp(configConfig, slogLogger, server)
	return app, nil
}
