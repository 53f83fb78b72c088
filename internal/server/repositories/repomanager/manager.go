package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/papers"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	// DB is the non-transactional handle repositories are bound to by default.
	DB() dbx.DBTX
	// WithTx runs fn in a transaction; repositories vended with tx see its writes.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
	Papers(db dbx.DBTX) papers.Repository
	Challenges(db dbx.DBTX) challenges.Repository
}
