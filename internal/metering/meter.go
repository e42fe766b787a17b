package metering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/logger"
)

// result of a successful debit
type Charge struct {
	CostUnits  int64
	NewBalance int64
}

// charges live model calls against entitlement accounts
type Meter struct {
	accounts accounts.Repository
	pricing  *PricingTable
	now      func() time.Time
}

func NewMeter(repo accounts.Repository, pricing *PricingTable) *Meter {
	return &Meter{accounts: repo, pricing: pricing, now: time.Now}
}

// prices usage and debits it from userID's balance in one atomic step.
// a balance that cannot cover the cost yields accounts.ErrInsufficientBalance
// and nothing is deducted.
func (m *Meter) Charge(ctx context.Context, userID, planType string, usage Usage) (*Charge, error) {
	cost, err := m.pricing.Cost(usage)
	if err != nil {
		return nil, err
	}

	now := m.now()

	if cost == 0 {
		acc, err := m.accounts.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load account: %w", err)
		}
		return &Charge{NewBalance: accounts.EffectiveBalance(acc, now)}, nil
	}

	balance, err := m.accounts.Debit(ctx, userID, cost, now)
	if err != nil {
		if errors.Is(err, accounts.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}

	rec := accounts.UsageRecord{
		UserID:       userID,
		PlanType:     planType,
		Model:        usage.Model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUnits:    cost,
		CreatedAt:    now,
	}

	if err := m.accounts.LogUsage(ctx, rec); err != nil {
		logger.FromContext(ctx).Warn("failed to log usage", "user_id", userID, "error", err)
	}

	return &Charge{CostUnits: cost, NewBalance: balance}, nil
}
