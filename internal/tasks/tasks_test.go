package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"go.uber.org/zap"
)

type recordingRepo struct {
	calls []UsageReconcilePayload
	err   error
}

func (r *recordingRepo) FindActiveBySecret(context.Context, string) (*apikey.APIKey, error) {
	return nil, apikey.ErrAPIKeyNotFound
}

func (r *recordingRepo) IncrementUsage(_ context.Context, id uuid.UUID, usage int64, usedAt time.Time) error {
	r.calls = append(r.calls, UsageReconcilePayload{KeyID: id, Usage: usage, UsedAt: usedAt})
	return r.err
}

func TestNewUsageReconcileTask(t *testing.T) {
	p := UsageReconcilePayload{KeyID: uuid.New(), Usage: 42, UsedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	task, err := NewUsageReconcileTask(p)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TypeUsageReconcile {
		t.Fatalf("unexpected type %s", task.Type())
	}

	var got UsageReconcilePayload
	if err := json.Unmarshal(task.Payload(), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.KeyID != p.KeyID || got.Usage != 42 || !got.UsedAt.Equal(p.UsedAt) {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestUsageReconcileHandlerAppliesWrite(t *testing.T) {
	repo := &recordingRepo{}
	h := NewUsageReconcileHandler(repo, nil, zap.NewNop())

	p := UsageReconcilePayload{KeyID: uuid.New(), Usage: 7, UsedAt: time.Now().UTC()}
	task, _ := NewUsageReconcileTask(p)

	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].KeyID != p.KeyID || repo.calls[0].Usage != 7 {
		t.Fatalf("unexpected repo calls %+v", repo.calls)
	}
}

func TestUsageReconcileHandlerReturnsRepoErrorForRetry(t *testing.T) {
	repo := &recordingRepo{err: errors.New("connection reset")}
	h := NewUsageReconcileHandler(repo, nil, zap.NewNop())

	task, _ := NewUsageReconcileTask(UsageReconcilePayload{KeyID: uuid.New(), Usage: 1, UsedAt: time.Now()})

	err := h.ProcessTask(context.Background(), task)
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("repository failures must be retried")
	}
}

func TestUsageReconcileHandlerSkipsRetryOnBadPayload(t *testing.T) {
	h := NewUsageReconcileHandler(&recordingRepo{}, nil, zap.NewNop())

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeUsageReconcile, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestUsageReconcileHandlerRejectsOtherTypes(t *testing.T) {
	h := NewUsageReconcileHandler(&recordingRepo{}, nil, zap.NewNop())

	err := h.ProcessTask(context.Background(), asynq.NewTask("something:else", nil))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
