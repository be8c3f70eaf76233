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

	"github.com/gin-gonic/gin"

	"mealtrack/internal/auth"
	"mealtrack/internal/config"
	"mealtrack/internal/handler"
	"mealtrack/internal/httpmiddleware"
	"mealtrack/internal/importer"
	"mealtrack/internal/meals"
	"mealtrack/internal/queue"
	"mealtrack/internal/store"
)

const jobsKey = "mealtrack:jobs"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("http server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st meals.Store
	if cfg.StoreBackend == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		st = meals.NewMemStore()
	} else {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		st = meals.NewRepository(db.Client)
	}

	svcOpts := []meals.Option{
		meals.WithTokenGenerator(meals.NewTokenGenerator(cfg.TokenPrefix)),
		meals.WithLogger(logger),
	}
	var (
		q           queue.Queue
		reports     importer.ReportStore
		revocations auth.RevocationList
		redisHealth handler.HealthChecker
	)
	if cfg.QueueBackend == "redis" {
		rdb := store.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
		if !rdb.Healthy(ctx) {
			logger.Warn("redis not reachable at start-up", slog.String("addr", cfg.RedisAddr))
		}
		q = queue.NewRedisQueue(rdb.Client, jobsKey, logger)
		reports = store.NewReports(rdb.Client, cfg.ImportReportTTL)
		revocations = store.NewRevocations(rdb.Client)
		redisHealth = rdb
		svcOpts = append(svcOpts, meals.WithTokenCache(store.NewTokenCache(rdb.Client, cfg.TokenCacheTTL)))
	} else {
		q = queue.NewInMemory(64)
		reports = importer.NewMemReports()
	}

	svc := meals.NewService(st, svcOpts...)
	gate := auth.NewGate(st, svc, revocations, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	created, err := gate.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("seeded admin account", slog.String("username", cfg.AdminUsername))
	}

	jobs := importer.NewJobs(svc, q, reports, logger)
	if cfg.QueueBackend == "memory" {
		// No separate worker can reach an in-process queue.
		go func() {
			if err := jobs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("import runner stopped", slog.Any("err", err))
			}
		}()
	}

	h := handler.New(handler.Deps{
		Service:        svc,
		Gate:           gate,
		Jobs:           jobs,
		Redis:          redisHealth,
		Limiter:        httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", slog.Any("err", err))
	}
	logger.Info("server exited")
	return nil
}
