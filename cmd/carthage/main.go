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
	"github.com/joho/godotenv"

	"github.com/carthage-erp/carthage-erp/internal/app"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
	declarationhttp "github.com/carthage-erp/carthage-erp/internal/fiscal/declaration/http"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/documents"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/settings"
	"github.com/carthage-erp/carthage-erp/internal/platform/cache"
	"github.com/carthage-erp/carthage-erp/internal/platform/db"
	"github.com/carthage-erp/carthage-erp/internal/shared"
	"github.com/carthage-erp/carthage-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Settings caching degrades gracefully when redis is down.
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

	settingsStore := settings.NewCached(settings.NewRepository(dbpool), redisClient, cfg.SettingsCacheTTL)
	yearRepo := fiscalyear.NewRepository(dbpool)
	accountRepo := accounts.NewRepository(dbpool)
	documentRepo := documents.NewRepository(dbpool)
	declarationRepo := declaration.NewRepository(dbpool)

	declarationService := declaration.NewService(declarationRepo, documentRepo, yearRepo, accountRepo, settingsStore, logger)
	declarationService.WithAudit(shared.NewAuditLogger(dbpool, "api"))
	declarationHandler := declarationhttp.NewHandler(logger, declarationService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		DeclarationHandler: declarationHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
