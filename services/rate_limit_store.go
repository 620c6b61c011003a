package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore owns the fixed-window counters behind the rate limiter. The
// in-memory store is the default; the Redis store lets a multi-node deployment
// share quotas without changing call sites.
type CounterStore interface {
	// Incr advances the counter for key, resetting it first when its window
	// has lapsed, and returns the post-increment count together with the
	// absolute end of the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error)

	// Reset discards the counter for key, restoring the full quota.
	Reset(ctx context.Context, key string) error

	// ActiveKeys reports how many counters currently exist under prefix.
	ActiveKeys(ctx context.Context, prefix string) (int, error)
}

// ==================== IN-MEMORY STORE ====================

type windowCounter struct {
	count   int
	resetAt time.Time
}

type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.resetAt) {
		// Stale window: drop any in-flight count, no carry-over.
		c = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = c
	}

	c.count++
	return c.count, c.resetAt, nil
}

func (s *MemoryCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

func (s *MemoryCounterStore) ActiveKeys(_ context.Context, prefix string) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, c := range s.counters {
		if strings.HasPrefix(key, prefix) && now.Before(c.resetAt) {
			n++
		}
	}
	return n, nil
}

// ==================== REDIS STORE ====================

type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisCounterStore) ActiveKeys(ctx context.Context, prefix string) (int, error) {
	keys, err := s.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
