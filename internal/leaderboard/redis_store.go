package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/fitboard/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const redisKeyPrefix = "fitboard-leaderboard||"

var _ DocumentStore = (*RedisStore)(nil)

// RedisStore keeps each collection in a hash, one JSON document per field.
// Collections expire after ttl, so past weeks clean themselves up.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *RedisStore) ListDocuments(ctx context.Context, collection string) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.leaderboard.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	fields, err := s.rdb.HGetAll(ctx, collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}
	span.SetAttributes(attribute.Int("documents", len(fields)))

	docs := make([]Document, 0, len(fields))
	for key, raw := range fields {
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			log.Warnf("leaderboard [%s]: document [%s] is not a json object: %s", collection, key, err)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *RedisStore) PutDocument(ctx context.Context, collection, key string, doc Document) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.leaderboard.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docJson, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	hashKey := collectionKey(collection)
	if err := s.rdb.HSet(ctx, hashKey, key, docJson).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, hashKey, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire: %w", err)
		}
	}

	return nil
}

func collectionKey(collection string) string {
	return redisKeyPrefix + collection
}
