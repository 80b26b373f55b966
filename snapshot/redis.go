package snapshot

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// RedisKV stores snapshot values in Redis. Useful when the client session
// is shared across processes on the same host (kiosk deployments).
type RedisKV struct {
	client *goredis.Client
	prefix string
}

// NewRedisKV creates a Redis-backed KV from a connection URL.
// Format: redis://[:password@]host:port[/db]
func NewRedisKV(url, prefix string) (*RedisKV, error) {
	if url == "" {
		return nil, errors.New("redis kv requires a URL")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis kv: invalid URL: %w", err)
	}
	return &RedisKV{
		client: goredis.NewClient(opts),
		prefix: prefix,
	}, nil
}

// Get implements KV.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis kv: get %s: %w", key, err)
	}
	return data, nil
}

// Set implements KV.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis kv: set %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis kv: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// Verify RedisKV implements KV.
var _ KV = (*RedisKV)(nil)
