// Package redis provides the optional last-known-good market cache backed by
// go-redis/v9. The cache is a fallback tier for market listings, never a
// system of record, so the client here is tuned for a small, low-traffic
// workload.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connectivity probe at construction.
const pingTimeout = 5 * time.Second

// Options holds connection parameters for the cache backend. Zero values fall
// back to go-redis defaults except PoolSize, which the config layer validates
// to at least 1.
type Options struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// Client wraps the go-redis driver for the cache sub-packages.
type Client struct {
	rdb *redis.Client
}

// New connects to the cache backend and verifies it answers before returning.
// A backend that cannot be reached at startup is a configuration error, not
// something to discover on the first fallback.
func New(ctx context.Context, opts Options) (*Client, error) {
	ropts := &redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		MaxRetries:  opts.MaxRetries,
		ClientName:  "bpmclient",
		DialTimeout: pingTimeout,
	}
	if opts.TLSEnabled {
		ropts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying returns the raw driver client for sub-packages.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}
