package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix     = "verify:code:"
	attemptsKeyPrefix = "verify:att:"
	cooldownKeyPrefix = "verify:cd:"
	flowKeyPrefix     = "verify:flow:"

	// Expired records are kept around briefly so verification can report
	// "expired" instead of "not found" before the key is reaped.
	expiredRecordGrace = time.Hour
)

// RedisStore keeps verification state in Redis. Single-key writes per
// identifier give the per-identifier serialization the flow relies on.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds the store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveCode(ctx context.Context, identifier string, rec CodeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal code record: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt) + expiredRecordGrace

	// Overwriting the key invalidates any prior code for the identifier.
	if err := s.client.Set(ctx, codeKeyPrefix+identifier, data, ttl).Err(); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.client.Set(ctx, attemptsKeyPrefix+identifier, 0, ttl).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

func (s *RedisStore) GetCode(ctx context.Context, identifier string) (*CodeRecord, error) {
	data, err := s.client.Get(ctx, codeKeyPrefix+identifier).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch code: %w", err)
	}
	var rec CodeRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal code record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) DeleteCode(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, codeKeyPrefix+identifier, attemptsKeyPrefix+identifier).Err()
}

func (s *RedisStore) IncrAttempts(ctx context.Context, identifier string) (int64, error) {
	return s.client.Incr(ctx, attemptsKeyPrefix+identifier).Result()
}

func (s *RedisStore) SetCooldown(ctx context.Context, identifier string, d time.Duration) error {
	return s.client.Set(ctx, cooldownKeyPrefix+identifier, 1, d).Err()
}

func (s *RedisStore) CooldownRemaining(ctx context.Context, identifier string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, cooldownKeyPrefix+identifier).Result()
	if err != nil {
		return 0, fmt.Errorf("check cooldown: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisStore) SaveFlowState(ctx context.Context, token string, state FlowState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal flow state: %w", err)
	}
	return s.client.Set(ctx, flowKeyPrefix+token, data, ttl).Err()
}

func (s *RedisStore) GetFlowState(ctx context.Context, token string) (*FlowState, error) {
	data, err := s.client.Get(ctx, flowKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch flow state: %w", err)
	}
	var state FlowState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal flow state: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) DeleteFlowState(ctx context.Context, token string) error {
	return s.client.Del(ctx, flowKeyPrefix+token).Err()
}
