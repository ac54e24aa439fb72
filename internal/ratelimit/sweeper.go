package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically removes expired entries from a MemoryStore so idle clients do not
// accumulate between their last attempt and the next lazy expiry.
type Sweeper struct {
	store    *MemoryStore
	schedule string
	observe  func(remaining int)
	cron     *cron.Cron
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewSweeper(store *MemoryStore, schedule string, observe func(remaining int), logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
		observe:  observe,
		cron:     cron.New(),
		logger:   logger.Named("RateLimitSweeper"),
	}
}

// Start schedules the sweep and stops it when ctx is done. An empty schedule disables it.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("Rate limit sweep schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule rate limit sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("Rate limit sweeper started", zap.String("schedule", s.schedule))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Rate limit sweeper stopped")
}

func (s *Sweeper) sweep() {
	before := s.store.Len()
	remaining := s.store.Sweep()
	if s.observe != nil {
		s.observe(remaining)
	}
	s.logger.Debug("Rate limit table swept", zap.Int("removed", before-remaining), zap.Int("remaining", remaining))
}
