package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestEffectiveBalance(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		acc  *Account
		want int64
	}{
		{"nil account", nil, 0},
		{"no expiry", &Account{TokenBalance: 500}, 0},
		{"expired", &Account{TokenBalance: 500, TokenExpiryAt: ptr(now.Add(-time.Second))}, 0},
		{"expires now", &Account{TokenBalance: 500, TokenExpiryAt: ptr(now)}, 0},
		{"valid", &Account{TokenBalance: 500, TokenExpiryAt: ptr(now.Add(time.Hour))}, 500},
		{"negative stored", &Account{TokenBalance: -10, TokenExpiryAt: ptr(now.Add(time.Hour))}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveBalance(tt.acc, now))
		})
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := now.AddDate(0, 1, 0)

	assert.True(t, IsStale(&Account{}, &periodEnd, now))
	assert.True(t, IsStale(&Account{TokenExpiryAt: ptr(now.Add(-time.Hour))}, nil, now))
	assert.True(t, IsStale(&Account{TokenExpiryAt: ptr(now.Add(time.Hour))}, &periodEnd, now))
	assert.False(t, IsStale(&Account{TokenExpiryAt: &periodEnd}, &periodEnd, now))
	assert.False(t, IsStale(&Account{TokenExpiryAt: ptr(now.Add(time.Hour))}, nil, now))
}

func TestMemoryRepository_GetCreatesFree(t *testing.T) {
	repo := NewMemoryRepository()

	acc, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanFree, acc.Plan)
	assert.Zero(t, acc.TokenBalance)
	assert.Nil(t, acc.TokenExpiryAt)
}

func TestMemoryRepository_TopUpIdempotentByRef(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	expiry := time.Now().Add(30 * 24 * time.Hour)

	acc, applied, err := repo.TopUp(ctx, "u1", 1000, expiry, "in_1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(1000), acc.TokenBalance)
	assert.Equal(t, PlanPro, acc.Plan)

	_, err = repo.Debit(ctx, "u1", 400, time.Now())
	require.NoError(t, err)

	acc, applied, err = repo.TopUp(ctx, "u1", 1000, expiry, "in_1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(600), acc.TokenBalance)

	acc, applied, err = repo.TopUp(ctx, "u1", 1000, expiry, "in_2")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(1000), acc.TokenBalance, "top-up sets, never adds")
}

func TestMemoryRepository_Debit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now()

	repo.Put(Account{UserID: "u1", Plan: PlanPro, TokenBalance: 100, TokenExpiryAt: ptr(now.Add(time.Hour))})

	balance, err := repo.Debit(ctx, "u1", 60, now)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	_, err = repo.Debit(ctx, "u1", 41, now)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	acc, _ := repo.Get(ctx, "u1")
	assert.Equal(t, int64(40), acc.TokenBalance)

	_, err = repo.Debit(ctx, "u1", 10, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInsufficientBalance, "expired balance cannot be spent")
}

func TestMemoryRepository_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now()

	repo.Put(Account{UserID: "u1", TokenBalance: 1000, TokenExpiryAt: ptr(now.Add(time.Hour))})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Debit(ctx, "u1", 30, now); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	acc, _ := repo.Get(ctx, "u1")
	assert.Equal(t, 33, succeeded)
	assert.Equal(t, int64(10), acc.TokenBalance)
}

func TestMemoryRepository_LinkAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.FindByCustomerID(ctx, "cus_1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LinkCustomer(ctx, "u1", "cus_1", "")
	require.NoError(t, err)

	acc, err := repo.FindByCustomerID(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "u1", acc.UserID)
	assert.Empty(t, acc.ExternalSubscriptionID)

	acc, err = repo.LinkCustomer(ctx, "u1", "cus_1", "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", acc.ExternalSubscriptionID)
}

func TestMemoryRepository_Demote(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Demote(ctx, "ghost", "canceled")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = repo.TopUp(ctx, "u1", 1000, time.Now().Add(time.Hour), "in_1")
	require.NoError(t, err)

	acc, err := repo.Demote(ctx, "u1", "canceled")
	require.NoError(t, err)
	assert.Equal(t, PlanFree, acc.Plan)
	assert.Zero(t, acc.TokenBalance)
	assert.Nil(t, acc.TokenExpiryAt)
	assert.Equal(t, "canceled", acc.SubscriptionStatus)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	expiry := time.Now().Add(time.Hour)
	acc, _, _ := repo.TopUp(ctx, "u1", 10, expiry, "")
	acc.TokenBalance = 999
	*acc.TokenExpiryAt = time.Time{}

	again, _ := repo.Get(ctx, "u1")
	assert.Equal(t, int64(10), again.TokenBalance)
	assert.True(t, again.TokenExpiryAt.Equal(expiry))
}
