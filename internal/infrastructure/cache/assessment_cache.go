// Package cache provides the Redis-backed lookup cache. Quick lookups are
// read-heavy and tolerate short staleness, so results are cached with a TTL
// instead of being recomputed on every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AssessmentCache caches serialized lookup results in Redis. It implements
// analysis.LookupCache.
type AssessmentCache struct {
	client     *redis.Client
	logger     *zap.Logger
	prefix     string
	defaultTTL time.Duration
}

// NewAssessmentCache connects to Redis and returns the cache.
func NewAssessmentCache(cfg Config, logger *zap.Logger) (*AssessmentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &AssessmentCache{
		client:     client,
		logger:     logger,
		prefix:     "solrisk:lookup:",
		defaultTTL: ttl,
	}, nil
}

// Get reads a cached value into out. A miss returns (false, nil).
func (c *AssessmentCache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		// A corrupt entry behaves like a miss so the caller recomputes.
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, c.prefix+key)
		return false, nil
	}
	return true, nil
}

// Set stores a value under the configured TTL.
func (c *AssessmentCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *AssessmentCache) Close() error {
	return c.client.Close()
}

// Ping verifies the Redis connection, for health checks.
func (c *AssessmentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
