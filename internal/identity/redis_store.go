package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitboard/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "fitboard-identity||"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the values of one device under its own key prefix.
type RedisStore struct {
	rdb      *redis.Client
	deviceID string
}

func NewRedisStore(rdb *redis.Client, deviceID string) *RedisStore {
	return &RedisStore{
		rdb:      rdb,
		deviceID: deviceID,
	}
}

func (s *RedisStore) GetString(ctx context.Context, key string) (_ string, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.identity.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (s *RedisStore) SetString(ctx context.Context, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.identity.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	return redisKeyPrefix + s.deviceID + "||" + key
}
