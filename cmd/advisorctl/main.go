package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/derma-advisor/internal/bootstrap"
	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/infra/config"
	"github.com/yanqian/derma-advisor/internal/interface/cli"
	"github.com/yanqian/derma-advisor/pkg/logger"
	"github.com/yanqian/derma-advisor/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(buildService)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrNotOK) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func buildService(ctx context.Context) (assessment.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewStderr()
	client, err := bootstrap.NewChatClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return assessment.NewService(cfg.Assessment(), client, metrics.NewTokenCounter(log), log), nil
}
