package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeUsageReconcile = "apikey:usage:reconcile"

	usageReconcileMaxRetry = 10
	usageReconcileTimeout  = 10 * time.Second
)

type UsageReconcilePayload struct {
	KeyID  uuid.UUID `json:"key_id"`
	Usage  int64     `json:"usage"`
	UsedAt time.Time `json:"used_at"`
}

func NewUsageReconcileTask(p UsageReconcilePayload, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	allOpts := append([]asynq.Option{
		asynq.MaxRetry(usageReconcileMaxRetry),
		asynq.Timeout(usageReconcileTimeout),
		asynq.TaskID(fmt.Sprintf("usage:%s:%d", p.KeyID, p.Usage)),
	}, opts...)

	return asynq.NewTask(TypeUsageReconcile, payloadBytes, allOpts...), nil
}

// Enqueuer hands failed usage writes to the background worker.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueUsageReconcile(ctx context.Context, keyID uuid.UUID, usage int64, usedAt time.Time) error {
	task, err := NewUsageReconcileTask(UsageReconcilePayload{KeyID: keyID, Usage: usage, UsedAt: usedAt})
	if err != nil {
		return fmt.Errorf("build usage reconcile task: %w", err)
	}

	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue usage reconcile task: %w", err)
	}
	return nil
}
