package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/garment-dashboard/internal/app"
	"github.com/odyssey-erp/garment-dashboard/internal/observability"
	reportshttp "github.com/odyssey-erp/garment-dashboard/internal/reports/http"
	"github.com/odyssey-erp/garment-dashboard/internal/view"
	"github.com/odyssey-erp/garment-dashboard/internal/workspace"
	"github.com/odyssey-erp/garment-dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	pipeline, err := app.NewPipeline(ctx, cfg, logger, metrics.Registerer())
	if err != nil {
		logger.Error("init report pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	workspaces := workspace.NewManager(workspace.Config{
		Fetcher: pipeline.Shared,
		Metrics: pipeline.Metrics,
		Logger:  logger,
		IdleTTL: cfg.WorkspaceIdleTTL,
		Secure:  cfg.IsProduction(),
	})
	defer workspaces.Close()
	go workspaces.Run(ctx)
	metrics.RegisterWorkspaceGauge(workspaces.Len)

	if pipeline.Store != nil {
		pipeline.Store.OnBump(func(version int64) {
			n := workspaces.Reset()
			logger.Info("mounted pages reset", slog.Int64("version", version), slog.Int("pages", n))
		})
		if _, err := pipeline.Store.ListenForInvalidation(ctx); err != nil {
			logger.Warn("listen for cache invalidation", slog.Any("error", err))
		}
	}

	reportHandler := reportshttp.NewHandler(reportshttp.Config{
		Logger:      logger,
		Registry:    pipeline.Registry,
		Workspaces:  workspaces,
		Templates:   templates,
		LoadWait:    cfg.QueryLoadWait,
		ExportLimit: cfg.ExportRateLimit,
	})

	var jobHandler *jobs.Handler
	if cfg.HasRedis() {
		inspector := asynq.NewInspector(cfg.Redis().AsynqOpt())
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("backend", cfg.BackendURL),
			slog.Bool("redis", cfg.HasRedis()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
