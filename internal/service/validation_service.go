package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/handler/dto"
	"github.com/makkenzo/apikey-validator/internal/ierr"
	"github.com/makkenzo/apikey-validator/internal/metrics"
	"github.com/makkenzo/apikey-validator/internal/ratelimit"
	"github.com/makkenzo/apikey-validator/internal/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultStoreTimeout = 5 * time.Second

// UsageRetryQueue takes usage writes that could not be stored inline.
type UsageRetryQueue interface {
	EnqueueUsageReconcile(ctx context.Context, keyID uuid.UUID, usage int64, usedAt time.Time) error
}

type ValidationRequest struct {
	ClientKey string
	// APIKey is nil when the body carried no usable string.
	APIKey *string
}

type ValidationService struct {
	repo         apikey.Repository
	limiter      ratelimit.Limiter
	retry        UsageRetryQueue
	metrics      *metrics.Metrics
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger

	rejectLog rate.Sometimes
}

type ValidationOption func(*ValidationService)

func WithUsageRetryQueue(q UsageRetryQueue) ValidationOption {
	return func(s *ValidationService) { s.retry = q }
}

func WithMetrics(m *metrics.Metrics) ValidationOption {
	return func(s *ValidationService) { s.metrics = m }
}

func WithStoreTimeout(d time.Duration) ValidationOption {
	return func(s *ValidationService) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithClock(now func() time.Time) ValidationOption {
	return func(s *ValidationService) { s.now = now }
}

// NewValidationService builds the validation flow. A nil repo means persistence is not
// configured and every admitted request fails with ierr.ErrConfiguration.
func NewValidationService(repo apikey.Repository, limiter ratelimit.Limiter, logger *zap.Logger, opts ...ValidationOption) *ValidationService {
	s := &ValidationService{
		repo:         repo,
		limiter:      limiter,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
		logger:       logger.Named("ValidationService"),
		rejectLog:    rate.Sometimes{First: 1, Interval: time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs one validation attempt: rate limit, input checks, lookup, usage limit, then
// usage accounting. Every attempt counts against the client's window, whatever its outcome.
func (s *ValidationService) Validate(ctx context.Context, req ValidationRequest) (info *dto.KeyInfo, err error) {
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveValidation(metrics.OutcomeInternal, s.now().Sub(start))
			panic(r)
		}
		s.metrics.ObserveValidation(OutcomeFor(err), s.now().Sub(start))
	}()

	if err := s.admit(ctx, req.ClientKey); err != nil {
		return nil, err
	}

	if s.repo == nil {
		s.logger.Error("Key store is not configured, check DATABASE_URL and DATABASE_PASSWORD")
		return nil, ierr.ErrConfiguration
	}

	if req.APIKey == nil || *req.APIKey == "" {
		return nil, ierr.ErrAPIKeyRequired
	}
	secret, ok := util.SanitizeSecret(*req.APIKey)
	if !ok {
		return nil, ierr.ErrAPIKeyFormat
	}

	key, err := s.lookup(ctx, secret)
	if err != nil {
		return nil, err
	}

	if key.Exhausted() {
		s.logger.Info("API key usage limit exceeded",
			zap.String("id", key.ID.String()),
			zap.Int64("usage", key.Usage),
			zap.Int64("usageLimit", key.UsageLimit),
		)
		return nil, ierr.ErrUsageLimitExceeded
	}

	usedAt := s.now().UTC()
	newUsage := key.Usage + 1
	s.account(ctx, key.ID, newUsage, usedAt)

	s.logger.Debug("API key validated", zap.String("id", key.ID.String()), zap.Int64("usage", newUsage))

	return &dto.KeyInfo{
		ID:         key.ID,
		Name:       key.Name,
		Type:       key.Type,
		Usage:      newUsage,
		UsageLimit: key.UsageLimit,
		LastUsed:   usedAt,
	}, nil
}

func (s *ValidationService) admit(ctx context.Context, clientKey string) error {
	decision, err := s.limiter.Admit(ctx, clientKey)
	if err != nil {
		// Fail open.
		s.metrics.IncRateLimitErrors()
		s.logger.Warn("Rate limiter unavailable, admitting request", zap.String("client", clientKey), zap.Error(err))
		return nil
	}
	if decision.Allowed {
		return nil
	}

	s.metrics.IncRateLimitRejections()
	s.rejectLog.Do(func() {
		s.logger.Warn("Validation attempts rate limited",
			zap.String("client", clientKey),
			zap.Int("count", decision.Count),
			zap.Time("resetAt", decision.ResetAt),
		)
	})

	return &ierr.RetryAfterError{
		Err:        ierr.ErrRateLimited,
		RetryAfter: decision.RetryAfter(s.now()),
	}
}

func (s *ValidationService) lookup(ctx context.Context, secret string) (*apikey.APIKey, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	key, err := s.repo.FindActiveBySecret(lookupCtx, secret)
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			return nil, ierr.ErrInvalidKey
		}
		s.logger.Error("Key store lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: lookup failed: %v", ierr.ErrServiceUnavailable, err)
	}
	if key == nil {
		return nil, ierr.ErrInvalidKey
	}
	return key, nil
}

// account stores the new usage. A failed write does not fail the validation; it is handed to
// the retry queue when one is configured.
func (s *ValidationService) account(ctx context.Context, id uuid.UUID, usage int64, usedAt time.Time) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	err := s.repo.IncrementUsage(writeCtx, id, usage, usedAt)
	if err == nil {
		return
	}

	s.metrics.IncUsageWriteFailures()
	s.logger.Error("Failed to record api key usage",
		zap.String("id", id.String()),
		zap.Int64("usage", usage),
		zap.Error(fmt.Errorf("%w: %v", ierr.ErrAPIKeyUsageNotSaved, err)),
	)

	if s.retry == nil {
		return
	}
	enqueueCtx, cancelEnqueue := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancelEnqueue()
	if err := s.retry.EnqueueUsageReconcile(enqueueCtx, id, usage, usedAt); err != nil {
		s.logger.Error("Failed to queue usage reconciliation", zap.String("id", id.String()), zap.Error(err))
	}
}

// OutcomeFor maps a validation error to its metrics outcome label.
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeValid
	case errors.Is(err, ierr.ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, ierr.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, ierr.ErrInvalidKey):
		return metrics.OutcomeInvalidKey
	case errors.Is(err, ierr.ErrServiceUnavailable):
		return metrics.OutcomeServiceUnavailable
	case errors.Is(err, ierr.ErrUsageLimitExceeded):
		return metrics.OutcomeUsageLimitExceeded
	case errors.Is(err, ierr.ErrConfiguration):
		return metrics.OutcomeConfiguration
	default:
		return metrics.OutcomeInternal
	}
}
