package payload

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a plain Redis key/value, the same client the queue
// package's RedisQueue is built over.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a RedisStore over an existing client. prefix namespaces gateway keys away
// from the queue package's own keys (e.g. "payload:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(path string) string { return s.prefix + path }

func (s *RedisStore) Upload(ctx context.Context, path string, data []byte) error {
	return s.client.Set(ctx, s.key(path), data, 0).Err()
}

func (s *RedisStore) Download(ctx context.Context, path string) ([]byte, error) {
	return s.client.Get(ctx, s.key(path)).Bytes()
}
