// Package mredis manages a Redis connection, grounded on the teacher's
// common/mredis. Bootstrap connects it at startup; no repository or
// service reads or writes through it.
package mredis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
)

// Connection lazily dials a Redis client on first GetClient call.
type Connection struct {
	Addr     string
	Password string
	DB       int
	Logger   mlog.Logger

	mu        sync.Mutex
	connected bool
	client    *redis.Client
}

// Connect dials Redis and verifies connectivity with a PING.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("mredis: ping: %w", err)
	}

	c.client = client
	c.connected = true

	if c.Logger != nil {
		c.Logger.Infof("mredis: connected to %s db=%d", c.Addr, c.DB)
	}

	return nil
}

// GetClient connects lazily on first use and returns the client.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client, nil
}
