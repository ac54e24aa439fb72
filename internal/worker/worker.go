package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/apikey-validator/internal/config"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/metrics"
	"github.com/makkenzo/apikey-validator/internal/tasks"
	"go.uber.org/zap"
)

func RedisConnOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewMux(repo apikey.Repository, m *metrics.Metrics, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()

	reconcileHandler := tasks.NewUsageReconcileHandler(repo, m, logger)
	mux.HandleFunc(tasks.TypeUsageReconcile, reconcileHandler.ProcessTask)

	return mux
}

// RunWorkers processes deferred usage writes until ctx is done.
func RunWorkers(ctx context.Context, cfg *config.Config, repo apikey.Repository, m *metrics.Metrics, logger *zap.Logger) error {
	log := logger.Named("Worker")

	srv := asynq.NewServer(
		RedisConnOpt(&cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.Int("retried", retried),
					zap.Int("max_retry", maxRetry),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	log.Info("Starting Asynq Server...")
	if err := srv.Start(NewMux(repo, m, logger)); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	<-ctx.Done()

	log.Info("Shutting down Asynq Server...")
	srv.Shutdown()
	log.Info("Asynq Server stopped.")
	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
