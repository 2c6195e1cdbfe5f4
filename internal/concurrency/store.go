package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore tracks in-flight call counts per account. The guard is
// correct against any implementation: in-process for a single instance,
// redis for a horizontally scaled deployment where the ceiling must hold
// across instances.
type CounterStore interface {
	// Incr adds one and returns the new count
	Incr(ctx context.Context, accountID string) (int64, error)

	// Decr subtracts one, never below zero, and returns the new count
	Decr(ctx context.Context, accountID string) (int64, error)

	// Get returns the current count
	Get(ctx context.Context, accountID string) (int64, error)
}

// process-local counter store backed by a mutex-protected map
type LocalStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewLocalStore() *LocalStore {
	return &LocalStore{counts: make(map[string]int64)}
}

func (s *LocalStore) Incr(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[accountID]++

	return s.counts[accountID], nil
}

func (s *LocalStore) Decr(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.counts[accountID] - 1

	if count <= 0 {
		// zero-valued entries are removed so the map stays bounded
		delete(s.counts, accountID)
		return 0, nil
	}

	s.counts[accountID] = count

	return count, nil
}

func (s *LocalStore) Get(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[accountID], nil
}

// redis-backed counter store shared across server instances
type RedisStore struct {
	client *redis.Client

	// keys expire after this long so a crashed instance cannot leak
	// permanent phantom slots
	ttl time.Duration
}

const redisKeyInflight = "concurrency:inflight:"

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Incr(ctx context.Context, accountID string) (int64, error) {
	key := redisKeyInflight + accountID

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (s *RedisStore) Decr(ctx context.Context, accountID string) (int64, error) {
	key := redisKeyInflight + accountID

	count, err := s.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count <= 0 {
		s.client.Del(ctx, key) //nolint:errcheck // best-effort cleanup
		return 0, nil
	}

	return count, nil
}

func (s *RedisStore) Get(ctx context.Context, accountID string) (int64, error) {
	count, err := s.client.Get(ctx, redisKeyInflight+accountID).Int64()
	if err == redis.Nil {
		return 0, nil
	}

	return count, err
}
