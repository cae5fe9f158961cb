// cache — read-through кэш документов контента поверх Redis.
//
// Кэш опционален: при пустом cache.url сервис работает напрямую со стораджем.
// Инвалидация выполняется на правке материала; инкремент просмотров кэш
// намеренно НЕ инвалидирует — допустимый дрейф счётчика устраняется
// естественным истечением TTL либо следующей правкой.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/site-content-service/internal/models"
)

// ContentCache — минимальный контракт кэша документов по id.
type ContentCache interface {
	// Get возвращает документ и признак его наличия в кэше.
	Get(ctx context.Context, id string) (*models.Content, bool, error)
	// Set сохраняет документ с TTL кэша.
	Set(ctx context.Context, content *models.Content) error
	// Invalidate удаляет документ из кэша (вызывается после правки).
	Invalidate(ctx context.Context, id string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "content:doc:".
func NewRedisCache(redisURL, prefix string, ttl time.Duration) (ContentCache, error) {
	if prefix == "" {
		prefix = "content:doc:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (c *redisCache) key(id string) string { return c.prefix + id }

func (c *redisCache) Get(ctx context.Context, id string) (*models.Content, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var out models.Content
	if err := json.Unmarshal(raw, &out); err != nil {
		// Битую запись выбрасываем: источник истины — хранилище.
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}

	return &out, true, nil
}

func (c *redisCache) Set(ctx context.Context, content *models.Content) error {
	if content == nil || content.ID == "" {
		return nil
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(content.ID), raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
