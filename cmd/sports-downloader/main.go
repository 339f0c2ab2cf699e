package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibwaheemi/sports-downloader-docker/internal/app"
	"github.com/ibwaheemi/sports-downloader-docker/internal/config"
	"github.com/ibwaheemi/sports-downloader-docker/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewWithFile(cfg.Logging.File, cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
