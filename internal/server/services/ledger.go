package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
)

// Standing is a user's point total and the level derived from it.
type Standing struct {
	Points int64
	Level  string
}

// Ledger is the only writer of points and levels. Every award is one atomic
// store-level update, so concurrent awards for the same user never lose
// increments.
type Ledger struct {
	repomanager repomanager.RepositoryManager
}

func NewLedger(m repomanager.RepositoryManager) *Ledger {
	return &Ledger{repomanager: m}
}

// Award adds delta to userID's points on db, which may be a transaction.
func (l *Ledger) Award(ctx context.Context, db dbx.DBTX, userID string, delta int64) (Standing, error) {
	points, level, err := l.repomanager.Users(db).AwardPoints(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
			return Standing{}, err
		}
		return Standing{}, fmt.Errorf("%w: award points: %v", common.ErrorStorage, err)
	}
	return Standing{Points: points, Level: level}, nil
}
