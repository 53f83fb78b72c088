// Package papers provides persistence for catalog entries.
package papers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectJoined = `SELECT p.id, p.subject, p.course_code, p.exam_year, p.exam_name, p.category,
		   p.file_reference, p.uploader_id, p.created_at,
		   u.first_name, u.last_name, u.profile_pic, u.level
		 FROM papers p
		 JOIN users u ON u.id = p.uploader_id`

func (r *PostgresRepository) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	query :=
		`INSERT INTO papers (subject, course_code, exam_year, exam_name, category, file_reference, uploader_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		paper.Subject, paper.CourseCode, paper.ExamYear, paper.ExamName, paper.Category,
		paper.StorageKey, paper.UploaderID).Scan(&paper.ID, &paper.CreatedAt)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) || pgerr.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return paper, nil
}

func scanJoined(row interface{ Scan(...any) error }) (*models.PaperWithUploader, error) {
	p := &models.PaperWithUploader{}
	err := row.Scan(&p.ID, &p.Subject, &p.CourseCode, &p.ExamYear, &p.ExamName, &p.Category,
		&p.StorageKey, &p.UploaderID, &p.CreatedAt,
		&p.Uploader.FirstName, &p.Uploader.LastName, &p.Uploader.ProfilePic, &p.Uploader.Level)
	if err != nil {
		return nil, err
	}
	p.Uploader.ID = p.UploaderID
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PaperWithUploader, error) {
	query := selectJoined + `
		 WHERE p.id = $1`

	p, err := scanJoined(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgerr.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns free text into a substring ILIKE pattern with the
// wildcard characters escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func (r *PostgresRepository) Search(ctx context.Context, query string) ([]models.PaperWithUploader, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if query == "" {
		rows, err = r.db.QueryContext(ctx, selectJoined+`
		 ORDER BY p.created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, selectJoined+`
		 WHERE p.subject ILIKE $1 ESCAPE '\' OR p.course_code ILIKE $1 ESCAPE '\' OR p.exam_name ILIKE $1 ESCAPE '\'
		 ORDER BY p.created_at DESC`, likePattern(query))
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.PaperWithUploader, 0)
	for rows.Next() {
		p, err := scanJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
