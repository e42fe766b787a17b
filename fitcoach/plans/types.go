package plans

import (
	"context"
	"errors"
	"time"

	"codeberg.org/fitcoach/server/internal/plan"
)

var ErrUnknownPlanType = errors.New("unknown plan type")

// a persisted plan, one per (user, plan type, start date, day count)
type Record struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      plan.Type  `json:"type"`
	StartDate string     `json:"startDate"`
	DayCount  int        `json:"dayCount"`
	Plan      *plan.Plan `json:"plan"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// durable plan storage. Upsert overwrites the plan for the same window.
type Repository interface {
	Upsert(ctx context.Context, userID string, planType plan.Type, p *plan.Plan) (*Record, error)
}
