package cache

import (
	"context"
	"log/slog"
	"time"
)

// PortraitStore caches resolved portrait URLs by player name.
type PortraitStore interface {
	GetURL(ctx context.Context, name string) (string, bool)
	SetURL(ctx context.Context, name, url string, ttl time.Duration)
	Invalidate(ctx context.Context, name string)
	Backend() string
}

// NewPortraitStore picks the Redis backend when redisURL is set and
// reachable, and the process-local cache otherwise.
func NewPortraitStore(redisURL string, mem *Cache, logger *slog.Logger) PortraitStore {
	if redisURL != "" {
		r := NewRedisPortraits(redisURL, logger)
		if r.Enabled() {
			return r
		}
	}
	return NewMemoryPortraits(mem)
}

func portraitKey(name string) string { return "portrait:" + name }

// MemoryPortraits keeps portrait URLs in the process-local cache.
type MemoryPortraits struct {
	cache *Cache
}

// NewMemoryPortraits wraps an in-memory cache as a portrait store.
func NewMemoryPortraits(c *Cache) *MemoryPortraits {
	return &MemoryPortraits{cache: c}
}

func (m *MemoryPortraits) GetURL(_ context.Context, name string) (string, bool) {
	data, _, ok := m.cache.Get(portraitKey(name))
	if !ok {
		return "", false
	}
	return string(data), true
}

func (m *MemoryPortraits) SetURL(_ context.Context, name, url string, ttl time.Duration) {
	m.cache.Set(portraitKey(name), []byte(url), ttl)
}

func (m *MemoryPortraits) Invalidate(_ context.Context, name string) {
	m.cache.Delete(portraitKey(name))
}

func (m *MemoryPortraits) Backend() string { return "memory" }
