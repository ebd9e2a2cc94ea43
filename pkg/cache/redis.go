package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps records in Redis using the same framing as DiskStore.
// Keys never expire: a stale record is still needed to revalidate it.
type RedisStore struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a store on top of an existing Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		logger: log.With().Str("component", "redis-cache").Logger(),
	}
}

// Get retrieves the record for key.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Record, error) {
	data, err := s.redis.Get(ctx, key.redisKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	record, err := DecodeRecord(data)
	if err != nil {
		CorruptRecords.WithLabelValues("redis").Inc()
		CacheMisses.WithLabelValues("redis").Inc()
		s.logger.Debug().Err(err).Str("key", key.String()).Msg("Ignoring undecodable cache entry")
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return record, nil
}

// Put replaces the record for key. SET is atomic, so readers never see a
// partial value.
func (s *RedisStore) Put(ctx context.Context, key Key, record *Record) error {
	data, err := EncodeRecord(record)
	if err != nil {
		CacheErrors.WithLabelValues("redis", "put").Inc()
		return err
	}

	if err := s.redis.Set(ctx, key.redisKey(), data, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrites.WithLabelValues("redis").Inc()
	CacheWriteBytes.WithLabelValues("redis").Add(float64(len(data)))
	return nil
}

// Delete removes a record. Only used by tooling; the client never deletes.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, key.redisKey()).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
