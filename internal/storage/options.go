package storage

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreOption configures a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	maxSessions int
	now         func() time.Time

	redisClient *redis.Client
	redisTTL    time.Duration
	keyPrefix   string
}

func newStoreConfig(opts []StoreOption) *storeConfig {
	cfg := &storeConfig{
		now:       time.Now,
		keyPrefix: "chat:session:",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithMaxSessions caps the memory store; zero means unbounded.
func WithMaxSessions(n int) StoreOption {
	return func(c *storeConfig) {
		c.maxSessions = n
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the expiry refreshed on every write.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}
