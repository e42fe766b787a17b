package quota

import (
	"context"
	"sync"
	"time"
)

type counterKey struct {
	userID string
	day    time.Time
}

// implements Store in process memory
type MemoryStore struct {
	mu       sync.Mutex
	counters map[counterKey]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[counterKey]int)}
}

func (s *MemoryStore) Increment(_ context.Context, userID string, day time.Time, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{userID, day}
	count := s.counters[key]

	if limit > 0 && count >= limit {
		return count, false, nil
	}

	count++
	s.counters[key] = count
	return count, true, nil
}

func (s *MemoryStore) Count(_ context.Context, userID string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[counterKey{userID, day}], nil
}
