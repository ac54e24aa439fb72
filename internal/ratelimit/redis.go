package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript applies the fixed-window rule atomically. The key's TTL is the window, so an
// expired window disappears and the next attempt starts a new one at 1.
//
// Returns {allowed, count, ttl_ms}.
var admitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[1])
  return {1, 1, tonumber(ARGV[1])}
end
current = tonumber(current)
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
  redis.call('PEXPIRE', KEYS[1], ttl)
end
if current >= tonumber(ARGV[2]) then
  return {0, current, ttl}
end
redis.call('INCR', KEYS[1])
return {1, current + 1, ttl}
`)

// RedisStore shares fixed-window counters between service instances.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	policy Policy
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisPolicy(p Policy) RedisOption {
	return func(s *RedisStore) { s.policy = p }
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(rdb redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
		policy: DefaultPolicy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Limiter = (*RedisStore)(nil)

func (s *RedisStore) Admit(ctx context.Context, clientKey string) (Decision, error) {
	now := s.now()
	key := s.prefix + ":" + clientKey

	res, err := admitScript.Run(ctx, s.rdb, []string{key},
		s.policy.Window.Milliseconds(),
		s.policy.MaxAttempts,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis rate limit script: unexpected reply length %d", len(res))
	}

	return Decision{
		Allowed: res[0] == 1,
		Count:   int(res[1]),
		ResetAt: now.Add(time.Duration(res[2]) * time.Millisecond),
	}, nil
}
