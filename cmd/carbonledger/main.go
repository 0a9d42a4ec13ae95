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

	"github.com/carbonledger/carbonledger/internal/app"
	"github.com/carbonledger/carbonledger/internal/audit"
	"github.com/carbonledger/carbonledger/internal/auth"
	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/calc"
	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/factors"
	"github.com/carbonledger/carbonledger/internal/importer"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/observability"
	"github.com/carbonledger/carbonledger/internal/platform/cache"
	"github.com/carbonledger/carbonledger/internal/platform/db"
	"github.com/carbonledger/carbonledger/internal/shared"
	"github.com/carbonledger/carbonledger/internal/units"
	"github.com/carbonledger/carbonledger/internal/users"
	"github.com/carbonledger/carbonledger/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	denylist := auth.NewDenylist(redisClient)
	tokens := auth.NewTokenService(auth.TokenServiceConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, denylist)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)
	verifier := &auth.Verifier{Tokens: tokens, Logger: logger}

	authorizer := authz.NewAuthorizer(authz.DefaultCapabilities())
	authzMW := authz.Middleware{Authorizer: authorizer, Logger: logger, Denials: metrics}

	unitsRepo := units.NewRepository(dbpool)
	unitsService := units.NewService(unitsRepo, auditLogger)
	unitsHandler := units.NewHandler(logger, unitsService, authzMW)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authzMW)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authorizer, authzMW)

	entriesRepo := entries.NewRepository(dbpool)
	entriesService := entries.NewService(entriesRepo, inventoryService, auditLogger)
	entriesHandler := entries.NewHandler(logger, entriesService, authorizer)

	factorsRepo := factors.NewRepository(dbpool)
	factorsService := factors.NewService(factorsRepo, auditLogger)
	factorsHandler := factors.NewHandler(logger, factorsService, authzMW)

	calcService := calc.NewService(entriesService, inventoryService, factorsService)
	calcHandler := calc.NewHandler(logger, calcService, authorizer, authzMW)

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	importerRepo := importer.NewRepository(dbpool)
	importerService := importer.NewService(importerRepo, inventoryService, queue, auditLogger, cfg.ImportMaxSize).WithMetrics(metrics)
	importsHandler := importer.NewHandler(logger, importerService, authzMW, cfg.ImportMaxSize)

	auditRepo := audit.NewPGRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         verifier,
		AuthHandler:      authHandler,
		UnitsHandler:     unitsHandler,
		UsersHandler:     usersHandler,
		InventoryHandler: inventoryHandler,
		EntriesHandler:   entriesHandler,
		FactorsHandler:   factorsHandler,
		CalcHandler:      calcHandler,
		ImportsHandler:   importsHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
