package accounts

import (
	"context"
	"sync"
	"time"
)

// Repository kept in process memory, used by tests and local runs.
// each account has its own mutex; there is no store-wide lock.
type MemoryRepository struct {
	accounts sync.Map // user id -> *memoryAccount
	usageMu  sync.Mutex
	usage    []UsageRecord
	now      func() time.Time
}

type memoryAccount struct {
	mu  sync.Mutex
	acc Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) entry(userID string) *memoryAccount {
	now := r.now()
	fresh := &memoryAccount{acc: Account{UserID: userID, Plan: PlanFree, CreatedAt: now, UpdatedAt: now}}

	v, _ := r.accounts.LoadOrStore(userID, fresh)
	return v.(*memoryAccount)
}

// runs fn on the account under its lock and returns a copy of the result
func (r *MemoryRepository) update(userID string, fn func(*Account) bool) *Account {
	e := r.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if fn(&e.acc) {
		e.acc.UpdatedAt = r.now()
	}

	return e.acc.copy()
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*Account, error) {
	return r.update(userID, func(*Account) bool { return false }), nil
}

func (r *MemoryRepository) FindByCustomerID(_ context.Context, customerID string) (*Account, error) {
	var found *Account

	r.accounts.Range(func(_, v any) bool {
		e := v.(*memoryAccount)
		e.mu.Lock()
		defer e.mu.Unlock()

		if customerID != "" && e.acc.ExternalCustomerID == customerID {
			found = e.acc.copy()
			return false
		}

		return true
	})

	if found == nil {
		return nil, ErrNotFound
	}

	return found, nil
}

func (r *MemoryRepository) LinkCustomer(_ context.Context, userID, customerID, subscriptionID string) (*Account, error) {
	return r.update(userID, func(a *Account) bool {
		a.ExternalCustomerID = customerID
		if subscriptionID != "" {
			a.ExternalSubscriptionID = subscriptionID
		}
		return true
	}), nil
}

func (r *MemoryRepository) ApplySubscription(_ context.Context, userID string, sub SubscriptionState) (*Account, error) {
	if _, ok := r.accounts.Load(userID); !ok {
		return nil, ErrNotFound
	}

	return r.update(userID, func(a *Account) bool {
		a.Plan = PlanPro
		a.ExternalSubscriptionID = sub.SubscriptionID
		a.SubscriptionStatus = sub.Status
		a.CurrentPeriodEnd = copyTime(sub.CurrentPeriodEnd)
		return true
	}), nil
}

func (r *MemoryRepository) TopUp(_ context.Context, userID string, amount int64, expiresAt time.Time, ref string) (*Account, bool, error) {
	applied := false

	acc := r.update(userID, func(a *Account) bool {
		if ref != "" && a.LastTopUpRef == ref {
			return false
		}

		a.Plan = PlanPro
		a.TokenBalance = amount
		a.TokenExpiryAt = copyTime(&expiresAt)
		a.LastTopUpRef = ref
		applied = true
		return true
	})

	return acc, applied, nil
}

func (r *MemoryRepository) Demote(_ context.Context, userID, status string) (*Account, error) {
	if _, ok := r.accounts.Load(userID); !ok {
		return nil, ErrNotFound
	}

	return r.update(userID, func(a *Account) bool {
		a.Plan = PlanFree
		a.TokenBalance = 0
		a.TokenExpiryAt = nil
		a.SubscriptionStatus = status
		return true
	}), nil
}

func (r *MemoryRepository) Debit(_ context.Context, userID string, cost int64, now time.Time) (int64, error) {
	var (
		balance int64
		err     error
	)

	r.update(userID, func(a *Account) bool {
		if a.TokenExpiryAt == nil || !a.TokenExpiryAt.After(now) || a.TokenBalance < cost {
			err = ErrInsufficientBalance
			return false
		}

		a.TokenBalance -= cost
		balance = a.TokenBalance
		return true
	})

	return balance, err
}

func (r *MemoryRepository) LogUsage(_ context.Context, rec UsageRecord) error {
	r.usageMu.Lock()
	defer r.usageMu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	r.usage = append(r.usage, rec)
	return nil
}

// returns a copy of every usage record logged so far
func (r *MemoryRepository) Usage() []UsageRecord {
	r.usageMu.Lock()
	defer r.usageMu.Unlock()

	return append([]UsageRecord(nil), r.usage...)
}

// replaces the stored account wholesale; for test setup
func (r *MemoryRepository) Put(acc Account) {
	r.update(acc.UserID, func(a *Account) bool {
		*a = *acc.copy()
		return false
	})
}

func (a *Account) copy() *Account {
	out := *a
	out.TokenExpiryAt = copyTime(a.TokenExpiryAt)
	out.CurrentPeriodEnd = copyTime(a.CurrentPeriodEnd)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t
	return &v
}
