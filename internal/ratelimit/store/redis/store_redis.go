package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aegis/internal/ratelimit/models"
)

// incrScript increments the window counter and sets its expiry atomically so
// concurrent callers agree on a single window boundary.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// Store implements fixed-window rate limiting backed by Redis, for hosts that
// run several tool instances against one limit namespace.
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a Redis-backed fixed-window store.
func New(client *redis.Client) *Store {
	return &Store{client: client, prefix: "aegis:ratelimit:"}
}

// Increment adds one hit for key in the current window.
func (s *Store) Increment(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	vals, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis increment: %w", err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("redis increment: unexpected reply length %d", len(vals))
	}

	count := int(vals[0])
	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &models.Result{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Reset clears the counter for a key.
func (s *Store) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}
	return nil
}

// Sweep is a no-op for Redis: PEXPIRE already bounds entry lifetime.
func (s *Store) Sweep(context.Context) (int, error) { return 0, nil }
