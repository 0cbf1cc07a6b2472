package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON blobs with a sliding TTL.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Get retrieves the state, returning a fresh one if none is stored.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal state: %w", err)
	}
	return &state, nil
}

// Save writes the state and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return ErrMissingID
	}
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete state: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
