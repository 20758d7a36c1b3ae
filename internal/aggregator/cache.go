package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

// Cache stores Conditions per location key. Expired entries are reported as
// misses and a zero TTL disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (*Conditions, bool, error)
	Set(ctx context.Context, key string, c *Conditions) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Backend() string
}

type cacheEntry struct {
	data     *Conditions
	storedAt time.Time
}

// MemoryCache is a process-local TTL map.
type MemoryCache struct {
	mutex   sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Backend() string {
	return "memory"
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Conditions, bool, error) {
	m.mutex.RLock()
	entry, exists := m.entries[key]
	m.mutex.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if m.now().Sub(entry.storedAt) >= m.ttl {
		m.mutex.Lock()
		delete(m.entries, key)
		m.mutex.Unlock()
		return nil, false, nil
	}

	return entry.data, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, c *Conditions) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = &cacheEntry{
		data:     c,
		storedAt: m.now(),
	}
	return nil
}

func (m *MemoryCache) Clear(context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = make(map[string]*cacheEntry)
	return nil
}

func (m *MemoryCache) Len(context.Context) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries), nil
}

// RedisCache shares Conditions between processes; redis expires the keys.
type RedisCache struct {
	client    *goredis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// DefaultRedisKeyPrefix namespaces the cache when no prefix is configured,
// so Clear and Len never scan the whole database.
const DefaultRedisKeyPrefix = "jbot:conditions:"

func NewRedisCache(client *goredis.Client, ttl time.Duration, keyPrefix string, logger *zap.Logger) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisCache) Backend() string {
	return "redis"
}

func (r *RedisCache) Get(ctx context.Context, key string) (*Conditions, bool, error) {
	cacheKey := r.keyPrefix + key

	data, err := r.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", cacheKey, err)
	}

	var result Conditions
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Warn("Dropping corrupt cache entry", zap.String("key", cacheKey), zap.Error(err))
		_ = r.client.Del(ctx, cacheKey).Err()
		return nil, false, nil
	}

	return &result, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, c *Conditions) error {
	if r.ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	cacheKey := r.keyPrefix + key
	if err := r.client.Set(ctx, cacheKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", cacheKey, err)
	}
	return nil
}

func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Warn("Failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	r.logger.Info("Cleared conditions cache", zap.Int("deleted_count", deleted))
	return nil
}

func (r *RedisCache) Len(ctx context.Context) (int, error) {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()

	count := 0
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

// NewCache builds the configured backend. The redis client is pinged so a
// bad address fails at startup.
func NewCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	ttl := time.Duration(cfg.TTL) * time.Second

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(ttl), nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("Using redis conditions cache", zap.String("addr", cfg.Redis.Addr))
		return NewRedisCache(client, ttl, cfg.Redis.KeyPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
