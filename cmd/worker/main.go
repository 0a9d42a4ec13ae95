package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/carbonledger/carbonledger/internal/app"
	"github.com/carbonledger/carbonledger/internal/importer"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/observability"
	"github.com/carbonledger/carbonledger/internal/platform/db"
	"github.com/carbonledger/carbonledger/internal/shared"
	"github.com/carbonledger/carbonledger/jobs"
)

// queueless satisfies the importer's enqueue dependency inside the worker,
// which only consumes batches and never submits new ones.
type queueless struct{}

func (queueless) EnqueueImport(ctx context.Context, batchID string) error {
	return errors.New("worker does not enqueue imports")
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)

	importerRepo := importer.NewRepository(pool)
	importerService := importer.NewService(importerRepo, inventoryService, queueless{}, auditLogger, cfg.ImportMaxSize).WithMetrics(metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeImportCSV, Handler: jobs.ImportCSVHandler(importerService)},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
