package plancache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyEntry = "plancache:%s"

	// entries not read for this long fall out of redis on their own
	DefaultRedisTTL = 30 * 24 * time.Hour
)

// implements Store using Redis hashes
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}

	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	key := fmt.Sprintf(keyEntry, fingerprint)
	now := time.Now().UTC()

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read plan cache: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrMiss
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "last_used_at", now.Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to touch plan cache entry: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])

	return &Entry{
		Fingerprint: fingerprint,
		PlanType:    fields["plan_type"],
		Payload:     []byte(fields["payload"]),
		CreatedAt:   createdAt,
		LastUsedAt:  now,
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, fingerprint, planType string, payload []byte) error {
	key := fmt.Sprintf(keyEntry, fingerprint)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", now)
	pipe.HSet(ctx, key, "plan_type", planType, "payload", string(payload), "last_used_at", now)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write plan cache: %w", err)
	}

	return nil
}
