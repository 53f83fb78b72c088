// Package challenges persists one-time password reset codes.
package challenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Challenge) (*models.Challenge, error) {
	query :=
		`INSERT INTO otp_challenges (email, code, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	if err := r.db.QueryRowContext(ctx, query, c.Email, c.Code, c.CreatedAt).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, email string, since time.Time) (*models.Challenge, error) {
	query :=
		`SELECT id, email, code, created_at FROM otp_challenges
		 WHERE email = $1 AND created_at >= $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	var c models.Challenge
	err := r.db.QueryRowContext(ctx, query, email, since).Scan(&c.ID, &c.Email, &c.Code, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

// Claim is a conditional update: of two concurrent claims on the same row
// the second re-checks consumed_at after the first commits and matches nothing.
func (r *PostgresRepository) Claim(ctx context.Context, id string, since, at time.Time) (bool, error) {
	query :=
		`UPDATE otp_challenges SET consumed_at = $2
		 WHERE id = $1 AND consumed_at IS NULL AND created_at >= $3
		 `

	res, err := r.db.ExecContext(ctx, query, id, at, since)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) ConsumeAll(ctx context.Context, email string, at time.Time) (int64, error) {
	query :=
		`UPDATE otp_challenges SET consumed_at = $2
		 WHERE email = $1 AND consumed_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, email, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
