package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyProcessedEvent = "billing:event:%s"

	// replays older than this are caught by the idempotent writes instead
	EventLogTTL = 30 * 24 * time.Hour
)

// EventLog backed by redis markers with a TTL
type RedisEventLog struct {
	client *redis.Client
}

func NewRedisEventLog(client *redis.Client) *RedisEventLog {
	return &RedisEventLog{client: client}
}

func (l *RedisEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, fmt.Sprintf(keyProcessedEvent, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event log: %w", err)
	}

	return n > 0, nil
}

func (l *RedisEventLog) MarkProcessed(ctx context.Context, eventID string) error {
	key := fmt.Sprintf(keyProcessedEvent, eventID)

	if err := l.client.SetNX(ctx, key, time.Now().UTC().Unix(), EventLogTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	return nil
}

type MemoryEventLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{seen: make(map[string]struct{})}
}

func (l *MemoryEventLog) Seen(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[eventID]
	return ok, nil
}

func (l *MemoryEventLog) MarkProcessed(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[eventID] = struct{}{}
	return nil
}
