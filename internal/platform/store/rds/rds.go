// Package rds provides the redis backed key value client used for shared counters and cache descriptors
package rds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client implements store.KV on top of go-redis
type Client struct {
	rdb *redis.Client
}

// INCR and the first-hit expiry must land together or a crash between them leaks a key forever
var incrExpire = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// bounded counter: refuse the increment once the limit is reached
var incrMax = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v >= tonumber(ARGV[1]) then
	return {v, 0}
end
v = redis.call('INCR', KEYS[1])
if v == 1 and tonumber(ARGV[2]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {v, 1}
`)

// counters never go below zero; a drained counter is removed
var decrFloor = redis.NewScript(`
local v = redis.call('DECR', KEYS[1])
if v <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
return v
`)

// Open dials redis and verifies it answers a PING
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rds: empty addr")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rds ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// New wraps an existing go-redis client
func New(rdb *redis.Client) *Client { return &Client{rdb: rdb} }

// IncrExpire increments key and sets ttl when the counter was just created
func (c *Client) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		return c.rdb.Incr(ctx, key).Result()
	}
	return incrExpire.Run(ctx, c.rdb, []string{key}, ms).Int64()
}

// IncrMax increments key only while it is below limit
func (c *Client) IncrMax(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	res, err := incrMax.Run(ctx, c.rdb, []string{key}, limit, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("rds incrmax: unexpected reply %v", res)
	}
	return res[0], res[1] == 1, nil
}

// Decr decrements key, deleting it once it reaches zero
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return decrFloor.Run(ctx, c.rdb, []string{key}).Int64()
}

// Get returns the value and whether it was present
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value with ttl; ttl <= 0 keeps the key until deleted
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Exists reports whether key is present
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Del removes key
func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Ping reports readiness
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
