package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ibwaheemi/sports-downloader-docker/internal/config"
	"github.com/ibwaheemi/sports-downloader-docker/internal/infrastructure/fetch"
	"github.com/ibwaheemi/sports-downloader-docker/internal/infrastructure/parser"
	"github.com/ibwaheemi/sports-downloader-docker/internal/infrastructure/retriever"
	"github.com/ibwaheemi/sports-downloader-docker/internal/infrastructure/scheduler"
	"github.com/ibwaheemi/sports-downloader-docker/internal/infrastructure/storage"
	"github.com/ibwaheemi/sports-downloader-docker/internal/logging"
	"github.com/ibwaheemi/sports-downloader-docker/internal/scanner"
	"github.com/ibwaheemi/sports-downloader-docker/internal/sweep"
	"github.com/ibwaheemi/sports-downloader-docker/internal/usecase"
)

// Application wires configuration to the pipeline and its lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
	sweeper   *sweep.Sweeper
}

// New builds a runnable application. Failure to create a required directory
// is the only error that stops the process before the loop starts.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	dirs := []string{
		cfg.Storage.DownloadPath,
		filepath.Dir(cfg.Storage.DataFile),
		filepath.Dir(cfg.Storage.KnownLinksFile),
		filepath.Dir(cfg.Logging.File),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	registry := scanner.NewRegistry()
	replays, err := parser.NewReplayScanner(cfg.Site.URL, baseLogger.With("component", "scanner.replays"))
	if err != nil {
		return nil, fmt.Errorf("configure scanner: %w", err)
	}
	registry.Register(replays)

	strategy, err := registry.Resolve(cfg.Site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("resolve scanner: %w", err)
	}

	links := storage.NewLinkLedger(cfg.Storage.KnownLinksFile, cfg.Site.Start(), baseLogger.With("component", "links"))
	links.Load()
	downloads := storage.NewDownloadLedger(cfg.Storage.DataFile, baseLogger.With("component", "downloads"))
	downloads.Load()

	sweeper := sweep.New(cfg.Storage.DownloadPath, baseLogger.With("component", "sweep"))

	pipeline := usecase.NewPipeline(cfg.Site.URL, cfg.Storage.DownloadPath, cfg.Storage.Retention(), usecase.PipelineDeps{
		Fetcher:   fetch.NewClient(baseLogger.With("component", "fetch")),
		Strategy:  strategy,
		Retriever: retriever.NewYtdlp(cfg.Retrieval.MaxDownloadTime(), cfg.Retrieval.MaxFileSizeBytes, baseLogger.With("component", "retriever")),
		Links:     links,
		Downloads: downloads,
		Sweeper:   sweeper,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Site.CheckInterval())

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		scheduler: usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
		sweeper:   sweeper,
	}, nil
}

// Run logs the startup banner, performs the startup sweep, starts the
// polling loop, and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logBanner()

	if removed := a.sweeper.RemoveAbandonedPartials(); removed > 0 {
		a.logger.Info("startup sweep removed abandoned partials", "count", removed)
	}
	if partials := a.sweeper.ResumablePartials(); len(partials) > 0 {
		a.logger.Info("found resumable downloads", "count", len(partials))
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

func (a *Application) logBanner() {
	a.logger.Info("=== SPORTS DOWNLOADER ===")
	a.logger.Info("configuration",
		"website", a.cfg.Site.URL,
		"download_path", a.cfg.Storage.DownloadPath,
		"check_interval", a.cfg.Site.CheckInterval(),
		"retention_days", a.cfg.Storage.RetentionDays,
		"max_download_time", a.cfg.Retrieval.MaxDownloadTime(),
		"max_file_size", a.cfg.Retrieval.MaxFileSizeBytes,
	)
	a.logger.Info("starting from", "start_date", a.cfg.Site.Start().Format("2006-01-02 15:04:05"))
}
