// Package users provides persistence for user accounts and their
// contribution totals.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/levels"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/pgerr"
)

const userColumns = `id, email, first_name, last_name, phone, secret_hash, points, level, profile_pic, bio, downloads, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.SecretHash,
		&u.Points, &u.Level, &u.ProfilePic, &u.Bio, &u.Downloads, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), pgerr.IsInvalidText(err):
		return common.ErrorNotFound
	case pgerr.IsUniqueViolation(err):
		return common.ErrorConflict
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, first_name, last_name, phone, secret_hash, points, level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.Phone, user.SecretHash, user.Points, user.Level).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, mapErr(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE lower(email) = lower($1)
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	query :=
		`UPDATE users SET
		   first_name = COALESCE($2, first_name),
		   last_name = COALESCE($3, last_name),
		   bio = COALESCE($4, bio),
		   profile_pic = COALESCE($5, profile_pic)
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id,
		nullable(upd.FirstName), nullable(upd.LastName), nullable(upd.Bio), nullable(upd.ProfilePic)))
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateSecret(ctx context.Context, email string, secretHash string) error {
	query :=
		`UPDATE users SET secret_hash = $2
		 WHERE lower(email) = lower($1)
		 `

	res, err := r.db.ExecContext(ctx, query, email, secretHash)
	if err != nil {
		return mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

var awardQuery = `UPDATE users
		 SET points = points + $2, level = ` + levels.SQLCase("points + $2") + `
		 WHERE id = $1 AND points + $2 >= 0
		 RETURNING points, level
		 `

func (r *PostgresRepository) AwardPoints(ctx context.Context, id string, delta int64) (int64, string, error) {
	var (
		points int64
		level  string
	)

	err := r.db.QueryRowContext(ctx, awardQuery, id, delta).Scan(&points, &level)
	if err == nil {
		return points, level, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", mapErr(err)
	}

	// no row updated: either the user is absent or the total would go negative
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return 0, "", mapErr(err)
	}
	if !exists {
		return 0, "", common.ErrorNotFound
	}
	return 0, "", common.ErrorValidation
}

func (r *PostgresRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE users SET downloads = downloads + 1
		 WHERE id = $1
		 RETURNING downloads
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
