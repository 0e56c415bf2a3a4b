package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisTokenKey = "pulsecart:token"

type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, key: redisTokenKey}, nil
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token from redis: %w", err)
	}
	return token, nil
}

// Set keeps the token until its exp claim when it has one, indefinitely otherwise.
func (s *RedisStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errEmptyToken
	}

	var ttl time.Duration
	if exp, ok := ExpiresAt(token); ok {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	if err := s.rdb.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("save token to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete token from redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
