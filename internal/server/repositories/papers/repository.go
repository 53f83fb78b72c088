package papers

import (
	"context"

	"github.com/dmitrijs2005/paperhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, paper *models.Paper) (*models.Paper, error)
	GetByID(ctx context.Context, id string) (*models.PaperWithUploader, error)
	// Search matches query case-insensitively as a substring of subject,
	// course code or exam name. An empty query returns every paper.
	Search(ctx context.Context, query string) ([]models.PaperWithUploader, error)
}
