package users

import (
	"context"

	"github.com/dmitrijs2005/paperhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	UpdateSecret(ctx context.Context, email string, secretHash string) error
	// AwardPoints adds delta to the user's points and recomputes the level
	// in a single atomic step, returning the new totals.
	AwardPoints(ctx context.Context, id string, delta int64) (int64, string, error)
	IncrementDownloads(ctx context.Context, id string) (int64, error)
}
