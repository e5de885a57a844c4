package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the settings blob under a single Redis key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, key: Key}
}

func (r *RedisStore) get(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings from redis: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Load(ctx context.Context) (NotificationSettings, error) {
	data, err := r.get(ctx)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return NotificationSettings{}, err
	}
	return Decode(data), nil
}

func (r *RedisStore) Save(ctx context.Context, s NotificationSettings) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write settings to redis: %w", err)
	}
	return nil
}
