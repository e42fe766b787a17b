// Package plancache maps request fingerprints to previously validated plans.
package plancache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getSQL = `
		UPDATE plan_cache
		SET last_used_at = NOW()
		WHERE fingerprint = $1
		RETURNING fingerprint, plan_type, payload, created_at, last_used_at
	`

	putSQL = `
		INSERT INTO plan_cache (fingerprint, plan_type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (fingerprint) DO UPDATE SET
			plan_type = EXCLUDED.plan_type,
			payload = EXCLUDED.payload,
			last_used_at = NOW()
	`
)

// implements Store using PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	var e Entry

	err := s.db.QueryRow(ctx, getSQL, fingerprint).Scan(
		&e.Fingerprint,
		&e.PlanType,
		&e.Payload,
		&e.CreatedAt,
		&e.LastUsedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMiss
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read plan cache: %w", err)
	}

	return &e, nil
}

func (s *PostgresStore) Put(ctx context.Context, fingerprint, planType string, payload []byte) error {
	if _, err := s.db.Exec(ctx, putSQL, fingerprint, planType, payload); err != nil {
		return fmt.Errorf("failed to write plan cache: %w", err)
	}

	return nil
}
