package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// the WHERE on the conflict branch makes check-and-increment one statement:
	// no row comes back when the counter is already at its limit
	incrementSQL = `
		INSERT INTO quota_counters (user_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE SET
			count = quota_counters.count + 1
		WHERE $3 <= 0 OR quota_counters.count < $3
		RETURNING count
	`

	countSQL = `SELECT count FROM quota_counters WHERE user_id = $1 AND day = $2`
)

// implements Store using PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, userID string, day time.Time, limit int) (int, bool, error) {
	var count int

	err := s.db.QueryRow(ctx, incrementSQL, userID, day, limit).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		used, err := s.Count(ctx, userID, day)
		return used, false, err
	}

	if err != nil {
		return 0, false, err
	}

	return count, true, nil
}

func (s *PostgresStore) Count(ctx context.Context, userID string, day time.Time) (int, error) {
	var count int

	err := s.db.QueryRow(ctx, countSQL, userID, day).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return count, err
}
