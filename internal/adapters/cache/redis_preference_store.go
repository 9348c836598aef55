package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPreferenceStore keeps preferences as plain string keys
// "<prefix><scope>:<key>". A zero TTL keeps them forever.
type RedisPreferenceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisPreferenceStore(addr, password string, db int, ttl time.Duration) (*RedisPreferenceStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisPreferenceStore{
		client: client,
		prefix: "dispatch-board:pref:",
		ttl:    ttl,
		logger: zap.L().With(zap.String("component", "redis_preference_store")),
	}, nil
}

func (s *RedisPreferenceStore) Close() error {
	return s.client.Close()
}

func (s *RedisPreferenceStore) key(scope, key string) string {
	return s.prefix + scope + ":" + key
}

func (s *RedisPreferenceStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("preference miss", zap.String("scope", scope), zap.String("key", key))
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s/%s: %w", scope, key, err)
	}
	return val, true, nil
}

func (s *RedisPreferenceStore) Set(ctx context.Context, scope, key, value string) error {
	if err := s.client.Set(ctx, s.key(scope, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set preference %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *RedisPreferenceStore) Remove(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("remove preference %s/%s: %w", scope, key, err)
	}
	return nil
}
