package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/server/levels"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ConcurrentAwardsAreNotLost(t *testing.T) {
	for _, n := range []int{1, 2, 10} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			userID := f.signup(t, "a@x.com", "pw123456")

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.ledger.Award(ctx, f.repos.DB(), userID, levels.PointsPerUpload)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			u, err := f.auth.Profile(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, int64(50*n), u.Points)
			assert.Equal(t, string(levels.ForPoints(u.Points)), u.Level)
		})
	}
}

func TestLedger_LevelFollowsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	s, err := f.ledger.Award(ctx, nil, userID, 1999)
	require.NoError(t, err)
	assert.Equal(t, Standing{Points: 1999, Level: "Silver"}, s)

	s, err = f.ledger.Award(ctx, nil, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, Standing{Points: 2000, Level: "Gold"}, s)

	s, err = f.ledger.Award(ctx, nil, userID, 2000)
	require.NoError(t, err)
	assert.Equal(t, Standing{Points: 4000, Level: "Legendary"}, s)
}

func TestLedger_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	_, err := f.ledger.Award(ctx, nil, "missing", 50)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.ledger.Award(ctx, nil, userID, -1)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLedger_PostgresIsOneStatement(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	require.NoError(t, err)
	l := NewLedger(rm)

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+points\s*=\s*points\s*\+\s*\$2,\s*level\s*=\s*CASE.*RETURNING\s+points,\s*level$`).
		WithArgs("u-1", int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"points", "level"}).AddRow(int64(50), "Silver"))

	s, err := l.Award(context.Background(), db, "u-1", 50)
	require.NoError(t, err)
	assert.Equal(t, Standing{Points: 50, Level: "Silver"}, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_StoreFailureIsStorageError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rm, _ := repomanager.NewPostgresRepositoryManager(db)
	mock.ExpectQuery(`UPDATE`).WillReturnError(errors.New("connection reset"))

	_, err = NewLedger(rm).Award(context.Background(), db, "u-1", 50)
	assert.ErrorIs(t, err, common.ErrorStorage)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}
