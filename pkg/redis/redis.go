package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace       = "shop"
	refreshTokenPrefix = "refresh_token"
	resetTokenPrefix   = "pwd_reset"
	cachePrefix        = "cache"
	realtimePrefix     = "rt"
)

// Nil re-exports the library's missing-key sentinel so callers don't need a
// second redis import.
var Nil = redis.Nil

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
	Publish(context.Context, string, any) *redis.IntCmd
}

// Client wraps the redis connection helpers needed by the platform.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close releases pooled connections.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Set stores a value under key with the provided TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get fetches the string value for key; returns Nil when missing.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.store.Get(ctx, key).Result()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.store.Del(ctx, keys...).Err()
}

// Publish emits a message on a pub/sub channel.
func (c *Client) Publish(ctx context.Context, channel string, payload any) error {
	return c.store.Publish(ctx, channel, payload).Err()
}

// PSubscribe opens a pattern subscription on the raw connection.
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return c.raw.PSubscribe(ctx, patterns...)
}

// RefreshTokenKey namespaces the single stored refresh token per user.
func (c *Client) RefreshTokenKey(userID string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, refreshTokenPrefix, userID)
}

// ResetTokenKey namespaces the single-use password-reset marker per user.
func (c *Client) ResetTokenKey(userID string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, resetTokenPrefix, userID)
}

// CacheKey namespaces read-side cache entries.
func (c *Client) CacheKey(name string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, cachePrefix, name)
}

// SellerChannel names the realtime pub/sub channel for one seller.
func SellerChannel(sellerID string) string {
	return fmt.Sprintf("%s:%s:seller:%s", keyNamespace, realtimePrefix, sellerID)
}

// SellerChannelPattern matches every seller realtime channel.
func SellerChannelPattern() string {
	return fmt.Sprintf("%s:%s:seller:*", keyNamespace, realtimePrefix)
}
