package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// subscription tier of an account
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// the per-user entitlement: prepaid token balance plus the subscription mirror.
// empty strings and nil times are stored as NULL.
type Account struct {
	UserID                 string     `json:"userId"`
	Plan                   Plan       `json:"plan"`
	TokenBalance           int64      `json:"tokenBalance"`
	TokenExpiryAt          *time.Time `json:"tokenExpiryAt"`
	SubscriptionStatus     string     `json:"subscriptionStatus,omitempty"`
	ExternalCustomerID     string     `json:"-"`
	ExternalSubscriptionID string     `json:"-"`
	CurrentPeriodEnd       *time.Time `json:"currentPeriodEnd,omitempty"`
	LastTopUpRef           string     `json:"-"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// subscription fields mirrored from the billing platform
type SubscriptionState struct {
	SubscriptionID   string
	Status           string
	CurrentPeriodEnd *time.Time
}

// one metered model call
type UsageRecord struct {
	UserID       string    `json:"userId"`
	PlanType     string    `json:"planType"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUnits    int64     `json:"costUnits"`
	CreatedAt    time.Time `json:"createdAt"`
}

// persistence for entitlement accounts. every write is a single atomic
// "set" so replays and concurrent writers converge on the same row state.
type Repository interface {
	// returns the account for userID, creating a FREE one on first access
	Get(ctx context.Context, userID string) (*Account, error)

	// returns ErrNotFound when no account carries customerID
	FindByCustomerID(ctx context.Context, customerID string) (*Account, error)

	// stores the billing customer (and subscription when non-empty) on the account
	LinkCustomer(ctx context.Context, userID, customerID, subscriptionID string) (*Account, error)

	// sets plan PRO and mirrors the subscription; tokens are untouched
	ApplySubscription(ctx context.Context, userID string, sub SubscriptionState) (*Account, error)

	// sets plan PRO, balance to amount and expiry. a non-empty ref equal to the
	// last applied one makes this a no-op and reports applied=false.
	TopUp(ctx context.Context, userID string, amount int64, expiresAt time.Time, ref string) (acc *Account, applied bool, err error)

	// sets plan FREE, zero balance, no expiry and records status
	Demote(ctx context.Context, userID, status string) (*Account, error)

	// atomically subtracts cost from an unexpired balance that covers it.
	// returns ErrInsufficientBalance and leaves the row untouched otherwise.
	Debit(ctx context.Context, userID string, cost int64, now time.Time) (int64, error)

	LogUsage(ctx context.Context, rec UsageRecord) error
}
