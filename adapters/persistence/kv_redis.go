package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
)

type redisKVStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKVStore stores values as plain strings under prefix+key with no expiry.
func NewRedisKVStore(rdb *redis.Client, prefix string) portfolio.KeyValueStore {
	return &redisKVStore{rdb: rdb, prefix: prefix}
}

func (s *redisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NewNotFound("stored value", key)
		}
		return nil, apperror.NewInternal("failed to read key from redis", err)
	}
	return value, nil
}

func (s *redisKVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return apperror.NewInternal("failed to write key to redis", err)
	}
	return nil
}
