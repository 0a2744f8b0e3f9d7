package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"foodgram/internal/platform/config"
)

const healthKeyTTL = 10 * time.Second

// Client is the shared go-redis client. Keys are built under its namespace with Key.
type Client struct {
	*redis.Client
	namespace string
}

// New connects to Redis. It returns nil when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.ClientName = cfg.Namespace

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return Wrap(client, cfg.Namespace), nil
}

// Wrap namespaces an existing client.
func Wrap(client *redis.Client, namespace string) *Client {
	return &Client{Client: client, namespace: strings.Trim(namespace, ":")}
}

// Key joins parts under the namespace: Key("trl", "jti") is "foodgram:trl:jti".
func (c *Client) Key(parts ...string) string {
	if c.namespace == "" {
		return strings.Join(parts, ":")
	}
	return c.namespace + ":" + strings.Join(parts, ":")
}

// Health writes and reads back a short-lived key under the namespace.
func (c *Client) Health(ctx context.Context) error {
	key := c.Key("health")
	if err := c.Set(ctx, key, "1", healthKeyTTL).Err(); err != nil {
		return fmt.Errorf("redis write: %w", err)
	}
	if err := c.Get(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis read: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
