package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultConfigCacheTTL = 5 * time.Minute
	quizConfigKey         = "quizweb:quiz-config"
)

// ConfigCache stores the public quiz configuration between requests.
type ConfigCache interface {
	Get(ctx context.Context) (*QuizConfig, error)
	Set(ctx context.Context, cfg QuizConfig) error
}

// RedisConfigCache keeps /api/quiz-config in Redis so the practice page
// does not hit the backend on every render.
type RedisConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ConfigCache = (*RedisConfigCache)(nil)

func NewRedisConfigCache(client *redis.Client, ttl time.Duration) *RedisConfigCache {
	if ttl <= 0 {
		ttl = defaultConfigCacheTTL
	}
	return &RedisConfigCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RedisConfigCache) Get(ctx context.Context) (*QuizConfig, error) {
	data, err := c.client.Get(ctx, quizConfigKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var cfg QuizConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RedisConfigCache) Set(ctx context.Context, cfg QuizConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quizConfigKey, data, c.ttl).Err()
}
