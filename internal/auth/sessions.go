package auth

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// SessionVersions tracks a per-account session generation counter. Issued
// tokens embed the generation they were minted under; bumping it revokes
// all outstanding tokens for that account.
type SessionVersions interface {
	Current(ctx context.Context, userID string) (int64, error)
	Bump(ctx context.Context, userID string) (int64, error)
}

const sessionVersionPrefix = "sess:ver:"

type redisSessionVersions struct {
	client *redis.Client
}

// NewRedisSessionVersions returns a Redis-backed implementation.
func NewRedisSessionVersions(client *redis.Client) SessionVersions {
	return &redisSessionVersions{client: client}
}

func (s *redisSessionVersions) Current(ctx context.Context, userID string) (int64, error) {
	val, err := s.client.Get(ctx, sessionVersionPrefix+userID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (s *redisSessionVersions) Bump(ctx context.Context, userID string) (int64, error) {
	return s.client.Incr(ctx, sessionVersionPrefix+userID).Result()
}

type memorySessionVersions struct {
	mu       sync.Mutex
	versions map[string]int64
}

// NewMemorySessionVersions returns an in-memory implementation for tests.
func NewMemorySessionVersions() SessionVersions {
	return &memorySessionVersions{versions: make(map[string]int64)}
}

func (s *memorySessionVersions) Current(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[userID], nil
}

func (s *memorySessionVersions) Bump(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[userID]++
	return s.versions[userID], nil
}
