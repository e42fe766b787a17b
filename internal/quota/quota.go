// Package quota enforces per-user daily caps on live model calls.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// resolves daily limits per tier and applies them against a Store
type Ledger struct {
	store  Store
	limits map[string]int
	now    func() time.Time
}

// limits maps tier name (case-insensitive) to a daily cap; unknown tiers are unlimited
func NewLedger(store Store, limits map[string]int) *Ledger {
	normalized := make(map[string]int, len(limits))
	for tier, limit := range limits {
		normalized[strings.ToUpper(tier)] = limit
	}

	return &Ledger{store: store, limits: normalized, now: time.Now}
}

func (l *Ledger) Limit(tier string) int {
	return l.limits[strings.ToUpper(tier)]
}

// consumes one generation from today's allowance or returns *ExceededError
// without touching the counter
func (l *Ledger) CheckAndIncrement(ctx context.Context, userID, tier string) error {
	now := l.now().UTC()
	limit := l.Limit(tier)

	count, ok, err := l.store.Increment(ctx, userID, dayOf(now), limit)
	if err != nil {
		return fmt.Errorf("failed to update quota counter: %w", err)
	}

	if !ok {
		return &ExceededError{
			Limit:      limit,
			Used:       count,
			RetryAfter: untilNextDay(now),
		}
	}

	return nil
}

func (l *Ledger) Usage(ctx context.Context, userID, tier string) (*Usage, error) {
	count, err := l.store.Count(ctx, userID, dayOf(l.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to read quota counter: %w", err)
	}

	return &Usage{Used: count, Limit: l.Limit(tier)}, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func untilNextDay(now time.Time) time.Duration {
	return dayOf(now).AddDate(0, 0, 1).Sub(now)
}
