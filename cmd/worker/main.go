package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mealtrack/internal/config"
	"mealtrack/internal/importer"
	"mealtrack/internal/meals"
	"mealtrack/internal/queue"
	"mealtrack/internal/store"
)

// Worker consumes queued roster imports and writes their reports to Redis.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.QueueBackend != "redis" || cfg.StoreBackend != "postgres" {
		logger.Error("worker needs QUEUE_BACKEND=redis and STORE_BACKEND=postgres")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("migrate failed", slog.Any("err", err))
		os.Exit(1)
	}

	rdb := store.NewRedis(cfg.RedisAddr)
	defer rdb.Close()
	if !rdb.Healthy(ctx) {
		logger.Warn("redis not reachable, will keep retrying", slog.String("addr", cfg.RedisAddr))
	}

	svc := meals.NewService(meals.NewRepository(db.Client),
		meals.WithTokenGenerator(meals.NewTokenGenerator(cfg.TokenPrefix)),
		meals.WithTokenCache(store.NewTokenCache(rdb.Client, cfg.TokenCacheTTL)),
		meals.WithLogger(logger),
	)
	jobs := importer.NewJobs(svc,
		queue.NewRedisQueue(rdb.Client, "mealtrack:jobs", logger),
		store.NewReports(rdb.Client, cfg.ImportReportTTL),
		logger,
	)

	logger.Info("worker started, waiting for import jobs")
	if err := jobs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
