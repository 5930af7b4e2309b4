package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the shared Redis connection. A nil *Client, or one without a
// connection, turns every helper into a no-op so the service runs without
// Redis.
type Client struct {
	Conn *redis.Client
}

// Connect accepts either host:port (with password and db) or a redis:// URL.
func Connect(ctx context.Context, addr, password string, db int) (*Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		var err error
		if opts, err = redis.ParseURL(addr); err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping Redis: %w", err)
	}
	log.Printf("Connected to Redis at %s", opts.Addr)
	return &Client{Conn: conn}, nil
}

func New(conn *redis.Client) *Client {
	return &Client{Conn: conn}
}

func (c *Client) Enabled() bool {
	return c != nil && c.Conn != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.Conn.Close()
}

// RdxGetJSON decodes the value at key into dst. It reports false on a miss.
func (c *Client) RdxGetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.Conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) RdxSetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Conn.Set(ctx, key, data, ttl).Err()
}

func (c *Client) RdxDel(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.Conn.Del(ctx, keys...).Err()
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

// RevokeToken blacklists a token id for ttl, the token's remaining lifetime.
func (c *Client) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if !c.Enabled() || jti == "" || ttl <= 0 {
		return nil
	}
	return c.Conn.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !c.Enabled() || jti == "" {
		return false, nil
	}
	n, err := c.Conn.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
