package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"aliasbot/backend/internal/domain"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache Redis 缓存：身份快照缓存与 HTTP 限流计数。
// 配额窗口不进缓存，配额唯一权威在持久层。
type Cache struct {
	client *goredis.Client
	ctx    context.Context
}

// NewCache 创建 Redis 缓存实例
func NewCache(client *Client) *Cache {
	return &Cache{
		client: client.Client(),
		ctx:    context.Background(),
	}
}

// ========== 身份缓存 ==========

// CacheIdentity 缓存身份信息
func (c *Cache) CacheIdentity(identity *domain.Identity, ttl time.Duration) error {
	key := fmt.Sprintf("identity:%d", identity.ID)
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

// GetCachedIdentity 获取缓存的身份信息
func (c *Cache) GetCachedIdentity(identityID int64) (*domain.Identity, error) {
	key := fmt.Sprintf("identity:%d", identityID)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// DeleteCachedIdentity 删除缓存的身份信息（身份变更后失效）
func (c *Cache) DeleteCachedIdentity(identityID int64) error {
	key := fmt.Sprintf("identity:%d", identityID)
	return c.client.Del(c.ctx, key).Err()
}

// ========== HTTP 限流计数 ==========

// IncrementRateLimit 增加限流计数
func (c *Cache) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()

	// 增加计数
	incr := pipe.Incr(c.ctx, key)

	// 设置过期时间（仅首次计数时）
	pipe.ExpireNX(c.ctx, key, window)

	if _, err := pipe.Exec(c.ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetRateLimit 获取限流计数
func (c *Cache) GetRateLimit(key string) (int64, error) {
	count, err := c.client.Get(c.ctx, key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
