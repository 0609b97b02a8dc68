package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store abstracts the session backend so multiple processes can share one
// session namespace. Get returns ErrNoSession for unknown tokens.
type Store interface {
	Get(ctx context.Context, token string) ([]byte, error)
	Set(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// RedisStore keeps session payloads in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

// Get fetches the payload for a session token.
func (s *RedisStore) Get(ctx context.Context, token string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return payload, nil
}

// Set stores the payload under a session token.
func (s *RedisStore) Set(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, payload, ttl).Err()
}

// Delete removes a session token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
