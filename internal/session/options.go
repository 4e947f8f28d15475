package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreOption configures a session store
type StoreOption func(*storeConfig)

type storeConfig struct {
	sqlitePath  string
	redisClient *redis.Client
	redisURL    string
	redisTTL    time.Duration
	now         func() time.Time
}

// WithSQLitePath sets the database file for the sqlite store
func WithSQLitePath(path string) StoreOption {
	return func(c *storeConfig) { c.sqlitePath = path }
}

// WithRedisClient sets the client for the redis store
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithRedisURL makes the redis store dial url (redis://host:port/db)
func WithRedisURL(url string) StoreOption {
	return func(c *storeConfig) { c.redisURL = url }
}

// WithRedisTTL sets the expiry of redis session keys
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.redisTTL = ttl }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}
