//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/derma-advisor/internal/bootstrap"
	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/imageupload"
	"github.com/yanqian/derma-advisor/internal/infra/config"
	httpiface "github.com/yanqian/derma-advisor/internal/interface/http"
	"github.com/yanqian/derma-advisor/pkg/logger"
	"github.com/yanqian/derma-advisor/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAssessmentConfig,
		provideUploadConfig,
		provideChatClient,
		provideObjectStorage,
		metrics.NewTokenCounter,
		assessment.NewService,
		imageupload.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
