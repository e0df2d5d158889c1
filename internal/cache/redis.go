package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPortraits stores portrait URLs in Redis so multiple instances share
// lookups. Every Redis failure degrades to a cache miss.
type RedisPortraits struct {
	client  *redis.Client
	enabled bool
	logger  *slog.Logger
}

// NewRedisPortraits connects to redisURL. An empty URL, an unparseable URL,
// or an unreachable server all yield a disabled store.
func NewRedisPortraits(redisURL string, logger *slog.Logger) *RedisPortraits {
	if redisURL == "" {
		return &RedisPortraits{logger: logger}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, portrait cache stays in memory", "error", err)
		return &RedisPortraits{logger: logger}
	}

	opt.PoolSize = 5
	opt.MinIdleConns = 1
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, portrait cache stays in memory", "error", err)
		return &RedisPortraits{logger: logger}
	}

	logger.Info("Redis portrait cache connected")
	return &RedisPortraits{client: client, enabled: true, logger: logger}
}

// Enabled reports whether the Redis backend is live.
func (r *RedisPortraits) Enabled() bool { return r.enabled }

func (r *RedisPortraits) GetURL(ctx context.Context, name string) (string, bool) {
	if !r.enabled {
		return "", false
	}
	val, err := r.client.Get(ctx, portraitKey(name)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.logger.Warn("Redis get failed", "key", name, "error", err)
		return "", false
	}
	return val, true
}

func (r *RedisPortraits) SetURL(ctx context.Context, name, url string, ttl time.Duration) {
	if !r.enabled {
		return
	}
	if err := r.client.Set(ctx, portraitKey(name), url, ttl).Err(); err != nil {
		r.logger.Warn("Redis set failed", "key", name, "error", err)
	}
}

func (r *RedisPortraits) Invalidate(ctx context.Context, name string) {
	if !r.enabled {
		return
	}
	if err := r.client.Del(ctx, portraitKey(name)).Err(); err != nil {
		r.logger.Warn("Redis del failed", "key", name, "error", err)
	}
}

func (r *RedisPortraits) Backend() string { return "redis" }
