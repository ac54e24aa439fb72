package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/metrics"
	"go.uber.org/zap"
)

type UsageReconcileHandler struct {
	repo    apikey.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewUsageReconcileHandler(repo apikey.Repository, m *metrics.Metrics, logger *zap.Logger) *UsageReconcileHandler {
	return &UsageReconcileHandler{
		repo:    repo,
		metrics: m,
		logger:  logger.Named("UsageReconcileHandler"),
	}
}

func (h *UsageReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeUsageReconcile {
		return fmt.Errorf("unexpected task type: %s: %w", t.Type(), asynq.SkipRetry)
	}

	var p UsageReconcilePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal usage reconcile payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		h.metrics.IncUsageReconciled("dropped")
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.repo.IncrementUsage(ctx, p.KeyID, p.Usage, p.UsedAt); err != nil {
		h.logger.Warn("Deferred usage write failed, will retry",
			zap.String("key_id", p.KeyID.String()),
			zap.Int64("usage", p.Usage),
			zap.Error(err),
		)
		h.metrics.IncUsageReconciled("failed")
		return fmt.Errorf("repository error reconciling usage: %w", err)
	}

	h.metrics.IncUsageReconciled("ok")
	h.logger.Info("Deferred usage write applied", zap.String("key_id", p.KeyID.String()), zap.Int64("usage", p.Usage))
	return nil
}
