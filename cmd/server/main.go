package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/internal/config"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/handler"
	"github.com/makkenzo/apikey-validator/internal/metrics"
	"github.com/makkenzo/apikey-validator/internal/ratelimit"
	"github.com/makkenzo/apikey-validator/internal/service"
	"github.com/makkenzo/apikey-validator/internal/storage/postgres"
	"github.com/makkenzo/apikey-validator/internal/storage/redis"
	"github.com/makkenzo/apikey-validator/internal/tasks"
	"github.com/makkenzo/apikey-validator/internal/worker"
	"github.com/makkenzo/apikey-validator/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, logLevel, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	if *configPath != "" {
		config.Watch(func(level string) {
			logger.SetLevel(logLevel, level)
			sugarLogger.Infof("Log level changed to: %s", level)
		})
	}

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	var (
		dbPool *pgxpool.Pool
		repo   apikey.Repository
	)
	if cfg.Database.Configured() {
		dbPool, err = postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()
		repo = postgres.NewAPIKeyRepository(dbPool, appLogger)
	} else {
		sugarLogger.Warn("DATABASE_URL or DATABASE_PASSWORD not set, validation requests will fail with a configuration error")
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	var limiter ratelimit.Limiter
	switch {
	case cfg.RateLimit.Backend == config.RateLimitBackendRedis && redisClient != nil:
		limiter = ratelimit.NewRedisStore(redisClient)
		sugarLogger.Info("Using Redis rate limiter")
	default:
		if cfg.RateLimit.Backend == config.RateLimitBackendRedis {
			sugarLogger.Warn("Redis rate limiter requested but redis.addr is empty, falling back to memory")
		}
		store := ratelimit.NewMemoryStore(ratelimit.WithMaxEntries(cfg.RateLimit.MaxEntries))
		sweeper := ratelimit.NewSweeper(store, cfg.RateLimit.SweepSchedule, appMetrics.SetRateLimitEntries, appLogger)
		if err := sweeper.Start(groupCtx); err != nil {
			sugarLogger.Fatalf("Failed to start rate limit sweeper: %v", err)
		}
		limiter = store
		sugarLogger.Info("Using in-memory rate limiter")
	}

	validationOpts := []service.ValidationOption{
		service.WithMetrics(appMetrics),
		service.WithStoreTimeout(cfg.Validation.StoreTimeout),
	}

	if redisClient != nil && repo != nil {
		asynqClient := asynq.NewClient(worker.RedisConnOpt(&cfg.Redis))
		defer asynqClient.Close()
		validationOpts = append(validationOpts, service.WithUsageRetryQueue(tasks.NewEnqueuer(asynqClient)))

		g.Go(func() error {
			if err := worker.RunWorkers(groupCtx, cfg, repo, appMetrics, appLogger); err != nil {
				sugarLogger.Error("Asynq worker failed", zap.Error(err))
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	}

	validationService := service.NewValidationService(repo, limiter, appLogger, validationOpts...)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Validate:       handler.NewValidateHandler(validationService, appLogger),
		Health:         handler.NewHealthHandler(dbPool, redisClient, appLogger),
		Gatherer:       reg,
		Logger:         appLogger,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
