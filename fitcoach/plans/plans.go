// Package plans persists generated training and nutrition plans.
package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/fitcoach/server/internal/plan"
)

// Repository backed by PostgreSQL, one table per plan type
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, planType plan.Type, p *plan.Plan) (*Record, error) {
	table, err := tableFor(planType)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(plan.DateLayout, p.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid plan start date: %w", err)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	rec := &Record{
		UserID:    userID,
		Type:      planType,
		StartDate: p.StartDate,
		DayCount:  p.DayCount,
		Plan:      p,
	}

	err = r.db.QueryRow(
		ctx,
		fmt.Sprintf(queryUpsert, table),
		userID,
		start,
		p.DayCount,
		p.Title,
		payload,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s plan: %w", planType, err)
	}

	return rec, nil
}

func tableFor(planType plan.Type) (string, error) {
	switch planType {
	case plan.TypeTraining:
		return "training_plans", nil
	case plan.TypeNutrition:
		return "nutrition_plans", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPlanType, planType)
	}
}
