package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-summary-webapp/internal/domain"
)

const keyPrefix = "webapp:client:"

// RedisStorage реализует domain.ClientStorage через Redis.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.ClientStorage = (*RedisStorage)(nil)

// NewRedis создаёт хранилище клиентов. ttl <= 0 означает хранение без срока.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func storageKey(client, key string) string {
	return keyPrefix + client + ":" + key
}

// Get возвращает значение и признак его наличия.
func (s *RedisStorage) Get(ctx context.Context, client, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, storageKey(client, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set задаёт значение и продлевает срок хранения.
func (s *RedisStorage) Set(ctx context.Context, client, key, value string) error {
	if err := s.client.Set(ctx, storageKey(client, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove удаляет значение.
func (s *RedisStorage) Remove(ctx context.Context, client, key string) error {
	if err := s.client.Del(ctx, storageKey(client, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
