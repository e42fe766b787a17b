package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/fitcoach/plans"
	"codeberg.org/fitcoach/server/internal/llm"
	"codeberg.org/fitcoach/server/internal/metering"
	"codeberg.org/fitcoach/server/internal/plan"
	"codeberg.org/fitcoach/server/internal/plancache"
)

var (
	// model output could not be turned into a valid plan after the retry
	ErrAIParse = errors.New("model output could not be parsed into a plan")

	// the model provider is down, rate limited or timed out
	ErrUpstreamUnavailable = errors.New("plan generator is temporarily unavailable")

	// a metered account has no usable balance left
	ErrNoBalance = errors.New("no token balance available")
)

// where a plan came from
type Source string

const (
	SourceTemplate Source = "template"
	SourceCache    Source = "cache"
	SourceLive     Source = "live"
)

// the plan was generated and persisted but debiting its cost failed
type ChargeError struct {
	Err error
}

func (e *ChargeError) Error() string {
	return fmt.Sprintf("failed to charge for generated plan: %v", e.Err)
}

func (e *ChargeError) Unwrap() error {
	return e.Err
}

type AccountReader interface {
	Get(ctx context.Context, userID string) (*accounts.Account, error)
}

type QuotaChecker interface {
	CheckAndIncrement(ctx context.Context, userID, tier string) error
}

type Charger interface {
	Charge(ctx context.Context, userID, planType string, usage metering.Usage) (*metering.Charge, error)
}

// collaborators of the Planner
type Deps struct {
	Generator    llm.TextGenerator
	Cache        plancache.Store
	Quota        QuotaChecker
	Meter        Charger
	Plans        plans.Repository
	Accounts     AccountReader
	MeteredPlans []string
}

// resolves plan requests through templates, the cache and the model
type Planner struct {
	generator llm.TextGenerator
	cache     plancache.Store
	quota     QuotaChecker
	meter     Charger
	plans     plans.Repository
	accounts  AccountReader
	metered   map[accounts.Plan]bool
	now       func() time.Time
}

// outcome of one plan request
type Result struct {
	Plan           *plan.Plan
	RecordID       string
	Source         Source
	Metered        bool
	TokenBalance   int64
	TokenRenewalAt *time.Time
	Charge         *metering.Charge
}

// describes how one plan type is templated, prompted and shaped
type job struct {
	planType plan.Type
	params   any
	template func() (*plan.Plan, bool)
	prompt   func(strict bool) (system, user string)
	shape    func(*plan.Plan) (*plan.Plan, error)
}
