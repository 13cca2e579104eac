package extractors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/redis/go-redis/v9"
)

// Cache stores successful extraction results.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Extraction, bool, error)
	Set(ctx context.Context, key string, v *models.Extraction, ttl time.Duration) error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisCacheFromClient(client, cfg.Prefix), nil
}

func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "feedfilter:extraction:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.Extraction, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var v models.Extraction
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached extraction: %w", err)
	}
	return &v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v *models.Extraction, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Cached serves results from cache and stores non-empty results after a
// successful extraction. Cache failures are logged and otherwise ignored.
type Cached struct {
	next   Extractor
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewCached(next Extractor, cache Cache, ttl time.Duration, logger logging.Logger) *Cached {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) ID() string { return c.next.ID() }

func (c *Cached) key(url string) string { return c.next.ID() + ":" + url }

func (c *Cached) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	v, ok, err := c.cache.Get(ctx, c.key(url))
	if err != nil {
		c.logger.Warn(ctx, "extraction cache read failed", "url", url, "err", err)
	}
	if ok {
		return v, nil
	}

	v, err = c.next.Extract(ctx, url)
	if err != nil || v.IsEmpty() {
		return v, err
	}
	if err := c.cache.Set(ctx, c.key(url), v, c.ttl); err != nil {
		c.logger.Warn(ctx, "extraction cache write failed", "url", url, "err", err)
	}
	return v, nil
}
