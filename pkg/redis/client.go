package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monacohq/graphsense-REST/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultKeyPrefix = "graphsense"
	DefaultTTL       = 10 * time.Minute
)

// Client wraps the Redis client used as a read-through cache for lookups
// that never change between dataset loads (tags, address clusters).
type Client struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

// NewClient creates a new Redis client using environment variables for configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
//   - REDIS_KEY_PREFIX: namespace of every key (default: "graphsense")
//   - REDIS_TTL: lifetime of cached entries (default: 10m)
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt64("REDIS_DB", 0)
	prefix := utils.Env("REDIS_KEY_PREFIX", DefaultKeyPrefix)
	ttl := utils.EnvDuration("REDIS_TTL", DefaultTTL)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       int(db),

		// Connection pool
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", addr),
		zap.Int64("db", db),
		zap.String("prefix", prefix),
		zap.Duration("ttl", ttl))

	return &Client{
		client: rdb,
		logger: logger,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Key joins parts under the client's prefix, e.g. "graphsense:btc:cluster_tags:7".
func (c *Client) Key(parts ...string) string {
	return Key(c.prefix, parts...)
}

// Key joins parts under prefix with ":" separators.
func Key(prefix string, parts ...string) string {
	return prefix + ":" + strings.Join(parts, ":")
}

// GetJSON decodes the value at key into dest. A missing key reports false and
// no error.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value at key with the client's TTL.
// This is a best-effort operation - errors are logged but not returned
// so a cache outage never fails a read.
func (c *Client) SetJSON(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode Redis value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write Redis key",
			zap.String("key", key),
			zap.Error(err))
	}
}
