package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps fixed-window counters in process memory. Every instance of the service
// holds its own table, so limits are per instance.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*entry
	policy     Policy
	maxEntries int
	now        func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) { s.maxEntries = n }
}

func WithPolicy(p Policy) MemoryOption {
	return func(s *MemoryStore) { s.policy = p }
}

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]*entry),
		policy:     DefaultPolicy,
		maxEntries: 100_000,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Limiter = (*MemoryStore)(nil)

func (s *MemoryStore) Admit(_ context.Context, clientKey string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[clientKey]
	if !ok || now.After(e.resetAt) {
		if !ok && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
			s.makeRoomLocked(now)
		}
		e = &entry{count: 1, resetAt: now.Add(s.policy.Window)}
		s.entries[clientKey] = e
		return Decision{Allowed: true, Count: e.count, ResetAt: e.resetAt}, nil
	}

	if e.count >= s.policy.MaxAttempts {
		return Decision{Allowed: false, Count: e.count, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Decision{Allowed: true, Count: e.count, ResetAt: e.resetAt}, nil
}

// Sweep drops expired entries and returns how many remain.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	return len(s.entries)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for k, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, k)
		}
	}
}

// makeRoomLocked frees one slot, evicting the entry closest to expiry when nothing has expired.
func (s *MemoryStore) makeRoomLocked(now time.Time) {
	s.sweepLocked(now)
	if len(s.entries) < s.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.resetAt.Before(oldest) {
			oldestKey, oldest = k, e.resetAt
		}
	}
	delete(s.entries, oldestKey)
}
