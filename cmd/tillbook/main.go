package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillbook/tillbook/internal/app"
	"github.com/tillbook/tillbook/internal/ledger"
	"github.com/tillbook/tillbook/internal/migration"
	"github.com/tillbook/tillbook/internal/payroll"
	"github.com/tillbook/tillbook/internal/platform/db"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	runner := migration.NewRunner(migration.NewStore(pool), logger)
	if err := runner.Run(ctx); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(pool)
	balanceCache := ledger.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, balanceCache, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	payrollRepo := payroll.NewRepository(pool)
	payrollService := payroll.NewService(payrollRepo, payroll.Config{
		StandardDayHours: cfg.StandardDayHours,
		BonusRatePct:     cfg.BonusRatePct,
	}, logger)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		LedgerHandler:  ledgerHandler,
		PayrollHandler: payrollHandler,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
