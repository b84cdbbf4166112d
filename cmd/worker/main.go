package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/carthage-erp/carthage-erp/internal/app"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/documents"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/settings"
	"github.com/carthage-erp/carthage-erp/internal/platform/cache"
	"github.com/carthage-erp/carthage-erp/internal/platform/db"
	"github.com/carthage-erp/carthage-erp/internal/provision"
	"github.com/carthage-erp/carthage-erp/internal/shared"
	"github.com/carthage-erp/carthage-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, settings cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	settingsRepo := settings.NewRepository(pool)
	settingsStore := settings.NewCached(settingsRepo, redisClient, cfg.SettingsCacheTTL)
	yearRepo := fiscalyear.NewRepository(pool)
	accountRepo := accounts.NewRepository(pool)
	documentRepo := documents.NewRepository(pool)
	declarationRepo := declaration.NewRepository(pool)

	declarationService := declaration.NewService(declarationRepo, documentRepo, yearRepo, accountRepo, settingsStore, logger)
	declarationService.WithAudit(shared.NewAuditLogger(pool, "worker"))
	provisionService := provision.NewService(provision.NewRepository(pool), accountRepo, settingsStore, logger)

	provisionJob := jobs.NewProvisionCompanyJob(provisionService, logger)
	refreshJob := jobs.NewDeclarationRefreshJob(pool, declarationService, logger)

	refreshTask, err := jobs.NewDeclarationRefreshTask(0, time.Now().UTC())
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskProvisionCompany, Handler: provisionJob.Handle},
			{Type: jobs.TaskDeclarationRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
