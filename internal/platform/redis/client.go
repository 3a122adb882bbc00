// Package redis connects the shared owner lock backend.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"famtree/internal/platform/config"
	"famtree/internal/platform/ownerlock"
)

const clientName = "famtree"

// Client is the process-wide Redis connection.
type Client struct {
	*redis.Client
}

// New dials cfg.URL and verifies it answers within the dial timeout. It
// returns nil, nil when Redis is not configured so callers fall back to the
// in-process lock.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.ClientName = clientName
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts)}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// OwnerLocker returns the cross-replica owner lock on this connection.
func (c *Client) OwnerLocker(ttl, acquireTimeout time.Duration) *ownerlock.RedisLocker {
	return ownerlock.NewRedis(c.Client, ttl, acquireTimeout)
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
