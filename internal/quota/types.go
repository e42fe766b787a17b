package quota

import (
	"context"
	"fmt"
	"time"
)

// storage for per-user daily counters
type Store interface {
	// adds one to the counter for (userID, day) unless it is already at limit.
	// limit <= 0 means unlimited. returns the resulting count and whether it was incremented.
	Increment(ctx context.Context, userID string, day time.Time, limit int) (count int, ok bool, err error)

	// returns the counter for (userID, day), zero when none exists
	Count(ctx context.Context, userID string, day time.Time) (int, error)
}

// returned when the daily cap for the user's tier is already used up
type ExceededError struct {
	Limit      int
	Used       int
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily generation quota exceeded (%d/%d), retry in %ds", e.Used, e.Limit, e.RetryAfterSeconds())
}

// whole seconds until the window resets, never less than one
func (e *ExceededError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// today's usage for the status endpoint
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"` // 0 means unlimited
}
