package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository backed by PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx, queryGet, userID))
}

func (r *PostgresRepository) FindByCustomerID(ctx context.Context, customerID string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx, queryFindByCustomerID, customerID))
}

func (r *PostgresRepository) LinkCustomer(ctx context.Context, userID, customerID, subscriptionID string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx, queryLinkCustomer, userID, customerID, subscriptionID))
}

func (r *PostgresRepository) ApplySubscription(ctx context.Context, userID string, sub SubscriptionState) (*Account, error) {
	return scanAccount(r.db.QueryRow(
		ctx,
		queryApplySubscription,
		userID,
		sub.SubscriptionID,
		sub.Status,
		sub.CurrentPeriodEnd,
	))
}

func (r *PostgresRepository) TopUp(
	ctx context.Context,
	userID string,
	amount int64,
	expiresAt time.Time,
	ref string,
) (*Account, bool, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx, queryTopUp, userID, amount, expiresAt, ref))
	if err == nil {
		return acc, true, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// either the ref was already applied or the row does not exist yet
	acc, err = r.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if ref != "" && acc.LastTopUpRef == ref {
		return acc, false, nil
	}

	acc, err = scanAccount(r.db.QueryRow(ctx, queryTopUp, userID, amount, expiresAt, ref))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// a concurrent writer applied the same ref first
			acc, err = r.Get(ctx, userID)
			return acc, false, err
		}
		return nil, false, err
	}

	return acc, true, nil
}

func (r *PostgresRepository) Demote(ctx context.Context, userID, status string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx, queryDemote, userID, status))
}

func (r *PostgresRepository) Debit(ctx context.Context, userID string, cost int64, now time.Time) (int64, error) {
	var balance int64

	err := r.db.QueryRow(ctx, queryDebit, userID, cost, now).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}

	if err != nil {
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) LogUsage(ctx context.Context, rec UsageRecord) error {
	_, err := r.db.Exec(
		ctx,
		queryLogUsage,
		rec.UserID,
		rec.PlanType,
		rec.Model,
		rec.InputTokens,
		rec.OutputTokens,
		rec.CostUnits,
	)
	if err != nil {
		return fmt.Errorf("failed to log usage: %w", err)
	}

	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	var plan string

	err := row.Scan(
		&acc.UserID,
		&plan,
		&acc.TokenBalance,
		&acc.TokenExpiryAt,
		&acc.SubscriptionStatus,
		&acc.ExternalCustomerID,
		&acc.ExternalSubscriptionID,
		&acc.CurrentPeriodEnd,
		&acc.LastTopUpRef,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acc.Plan = Plan(plan)
	return &acc, nil
}
