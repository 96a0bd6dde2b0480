package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"univers-nexus/internal/domain"
)

// RedisCache реализует domain.Cache через Redis. Используется как хранилище
// активной сессии между перезапусками процесса.
type RedisCache struct {
	client *redis.Client
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set задаёт значение.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Get возвращает значение.
func (c *RedisCache) Get(key string) ([]byte, error) {
	return c.client.Get(context.Background(), key).Bytes()
}

// Del удаляет ключ.
func (c *RedisCache) Del(key string) error {
	return c.client.Del(context.Background(), key).Err()
}
