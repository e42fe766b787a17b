package plans

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/fitcoach/server/internal/plan"
)

type windowKey struct {
	userID    string
	planType  plan.Type
	startDate string
	dayCount  int
}

// Repository kept in process memory
type MemoryRepository struct {
	mu      sync.Mutex
	records map[windowKey]*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[windowKey]*Record)}
}

func (r *MemoryRepository) Upsert(_ context.Context, userID string, planType plan.Type, p *plan.Plan) (*Record, error) {
	if _, err := tableFor(planType); err != nil {
		return nil, err
	}

	key := windowKey{userID, planType, p.StartDate, p.DayCount}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		rec = &Record{
			ID:        uuid.NewString(),
			UserID:    userID,
			Type:      planType,
			StartDate: p.StartDate,
			DayCount:  p.DayCount,
			CreatedAt: now,
		}
		r.records[key] = rec
	}

	rec.Plan = p.Clone()
	rec.UpdatedAt = now

	out := *rec
	out.Plan = rec.Plan.Clone()
	return &out, nil
}

// returns every stored record for userID
func (r *MemoryRepository) List(userID string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Record
	for k, rec := range r.records {
		if k.userID == userID {
			cp := *rec
			cp.Plan = rec.Plan.Clone()
			out = append(out, cp)
		}
	}

	return out
}
