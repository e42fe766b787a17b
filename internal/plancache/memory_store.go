package plancache

import (
	"context"
	"sync"
	"time"
)

// implements Store in process memory
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		return nil, ErrMiss
	}

	e.LastUsedAt = s.now()

	out := *e
	out.Payload = append([]byte(nil), e.Payload...)
	return &out, nil
}

func (s *MemoryStore) Put(_ context.Context, fingerprint, planType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[fingerprint]
	if !ok {
		e = &Entry{Fingerprint: fingerprint, CreatedAt: now}
		s.entries[fingerprint] = e
	}

	e.PlanType = planType
	e.Payload = append([]byte(nil), payload...)
	e.LastUsedAt = now
	return nil
}
