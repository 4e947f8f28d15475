package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions
type Store interface {
	// Create stores a new session with Version 1, replacing any session
	// with the same ID
	Create(ctx context.Context, data *SessionData) error

	// Get returns the session, or nil when it does not exist
	Get(ctx context.Context, id string) (*SessionData, error)

	// Update persists data if its Version matches the stored one, then
	// increments Version and UpdatedAt. Returns ErrVersionConflict or
	// ErrSessionNotFound.
	Update(ctx context.Context, data *SessionData) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the store
	Close() error
}

// StoreType selects a Store driver
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeRedis  StoreType = "redis"
)

const defaultRedisTTL = 7 * 24 * time.Hour

// NewStore creates a store of the given type. sqlite needs WithSQLitePath;
// redis needs WithRedisClient or WithRedisURL.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(cfg.now), nil

	case StoreTypeSQLite:
		if cfg.sqlitePath == "" {
			return nil, fmt.Errorf("%w: sqlite store needs a path", ErrInvalidConfig)
		}
		return openSQLiteStore(cfg.sqlitePath, cfg.now)

	case StoreTypeRedis:
		client := cfg.redisClient
		if client == nil && cfg.redisURL != "" {
			redisOpts, err := redis.ParseURL(cfg.redisURL)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			client = redis.NewClient(redisOpts)
		}
		if client == nil {
			return nil, fmt.Errorf("%w: redis store needs a client or url", ErrInvalidConfig)
		}
		ttl := cfg.redisTTL
		if ttl <= 0 {
			ttl = defaultRedisTTL
		}
		return &redisStore{client: client, ttl: ttl, now: cfg.now}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}
