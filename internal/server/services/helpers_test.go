package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/dmitrijs2005/paperhub/internal/server/auth"
	"github.com/dmitrijs2005/paperhub/internal/server/blobstore"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/notify"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/papers"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	repos    *inmemory.RepositoryManager
	tokens   *auth.TokenIssuer
	notifier *notify.Recorder
	blobs    *blobstore.MemoryStore
	otp      *OTPManager
	auth     *AuthService
	ledger   *Ledger
	catalog  *Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repos:    inmemory.NewRepositoryManager(),
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
		notifier: &notify.Recorder{},
		blobs:    blobstore.NewMemoryStore(),
	}
	f.otp = NewOTPManager(f.repos, 10*time.Minute)
	f.ledger = NewLedger(f.repos)

	var err error
	f.auth, err = NewAuthService(f.repos, auth.NewBcryptHasher(bcrypt.MinCost), f.tokens, f.otp, f.notifier, logging.Nop())
	require.NoError(t, err)

	f.catalog = NewCatalog(f.repos, f.blobs, f.ledger, logging.Nop())
	return f
}

func (f *fixture) signup(t *testing.T, email, secret string) string {
	t.Helper()
	token, err := f.auth.Signup(context.Background(), SignupInput{FirstName: "Ada", LastName: "Lovelace", Email: email, Phone: "555", Secret: secret})
	require.NoError(t, err)
	userID, err := f.tokens.Verify(token)
	require.NoError(t, err)
	return userID
}

// failingPapers rejects every insert.
type failingPapers struct {
	papers.Repository
	err error
}

func (p failingPapers) Create(context.Context, *models.Paper) (*models.Paper, error) {
	return nil, p.err
}

type brokenPaperRepos struct {
	*inmemory.RepositoryManager
	err error
}

func (m brokenPaperRepos) Papers(db dbx.DBTX) papers.Repository {
	return failingPapers{Repository: m.RepositoryManager.Papers(db), err: m.err}
}
