package challenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Challenge) (*models.Challenge, error)
	// Latest returns the newest unconsumed challenge for email created at or
	// after since, or common.ErrorNotFound.
	Latest(ctx context.Context, email string, since time.Time) (*models.Challenge, error)
	// Claim consumes challenge id if it is still unconsumed and created at or
	// after since. It reports false when another caller got there first.
	Claim(ctx context.Context, id string, since, at time.Time) (bool, error)
	// ConsumeAll marks every outstanding challenge for email as consumed.
	ConsumeAll(ctx context.Context, email string, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
