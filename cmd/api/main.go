package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RSAC2025/rsac/config"
	evmAdapter "github.com/RSAC2025/rsac/internal/adapter/evm"
	httpHandler "github.com/RSAC2025/rsac/internal/adapter/http/handler"
	pgStorage "github.com/RSAC2025/rsac/internal/adapter/storage/postgres"
	redisStorage "github.com/RSAC2025/rsac/internal/adapter/storage/redis"
	"github.com/RSAC2025/rsac/internal/core/ports"
	"github.com/RSAC2025/rsac/internal/scheduler"
	"github.com/RSAC2025/rsac/internal/service"
	"github.com/RSAC2025/rsac/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting RSAC Reward Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	feeEventRepo := pgStorage.NewFeeEventRepo(pool)
	settingRepo := pgStorage.NewRewardSettingRepo(pool)
	centerRepo := pgStorage.NewCenterRepo(pool)
	commissionRewardRepo := pgStorage.NewCommissionRewardRepo(pool)
	centerRewardRepo := pgStorage.NewCenterRewardRepo(pool)
	payableRepo := pgStorage.NewPayableRepo(pool)

	// Initialize Redis-backed run lock
	runLock := redisStorage.NewRunLock(rdb)

	// Initialize on-chain transfer client
	transferClient, err := evmAdapter.Dial(cfg.Chain, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize transfer client")
	}

	// Initialize services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	commissionSvc := service.NewCommissionCalcService(feeEventRepo, settingRepo, commissionRewardRepo, cfg.Reward.BatchSize, log)
	centerSvc := service.NewCenterCalcService(feeEventRepo, settingRepo, centerRepo, centerRewardRepo, cfg.Reward.BatchSize, log)
	aggregatorSvc := service.NewTransferAggregatorService(commissionRewardRepo, centerRewardRepo, payableRepo, log)
	disburseSvc := service.NewDisbursementService(
		payableRepo,
		transferClient,
		runLock,
		cfg.Reward.LockEnabled,
		cfg.Reward.RunLockTTL,
		cfg.Chain.TransferTimeout,
		log,
	)

	// Daily pipeline scheduler
	if cfg.Scheduler.Enabled {
		runner := scheduler.NewDailyRunner(commissionSvc, centerSvc, aggregatorSvc, disburseSvc, cfg.Scheduler.RunAt, log)
		go runner.Start()
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Commission:     commissionSvc,
		Center:         centerSvc,
		Aggregator:     aggregatorSvc,
		Disburser:      disburseSvc,
		PayableRepo:    payableRepo,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
