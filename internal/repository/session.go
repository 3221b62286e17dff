package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"silverland-assistant/internal/config"
	"silverland-assistant/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no conversation exists for an id.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "conv:"

// SessionStore persists opaque conversation state in Redis, keyed by
// conversation id. State is stored as one JSON blob and replaced as a unit
// each turn.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(cfg config.RedisConfig, ttl time.Duration) *SessionStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &SessionStore{client: rdb, ttl: ttl}
}

// NewSessionStoreWithClient wraps an existing client, used by tests.
func NewSessionStoreWithClient(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Ping tests the Redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *SessionStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Load reads the conversation state for an id, or ErrSessionNotFound.
func (s *SessionStore) Load(ctx context.Context, conversationID string) (*model.AgentState, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+conversationID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", conversationID, err)
	}

	var state model.AgentState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", conversationID, err)
	}
	return &state, nil
}

// Save writes the conversation state, refreshing its TTL.
func (s *SessionStore) Save(ctx context.Context, conversationID string, state *model.AgentState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", conversationID, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+conversationID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", conversationID, err)
	}
	return nil
}
