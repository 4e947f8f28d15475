package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "voiceflow-portal:session:"

// redisStore keeps sessions as JSON strings with a sliding TTL
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func (s *redisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (s *redisStore) Create(ctx context.Context, data *SessionData) error {
	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	val, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(data.ID), val, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) (*SessionData, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}
	// Sliding expiry
	_ = s.client.Expire(ctx, key, s.ttl).Err()
	return &data, nil
}

func (s *redisStore) Update(ctx context.Context, data *SessionData) error {
	key := s.key(data.ID)
	next := data.clone()

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var stored SessionData
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return err
		}
		if stored.Version != data.Version {
			return ErrVersionConflict
		}

		next.Version = data.Version + 1
		next.UpdatedAt = s.now()
		newVal, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	*data = *next
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
