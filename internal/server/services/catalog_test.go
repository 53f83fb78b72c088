package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upload(subject, course, exam string) Upload {
	return Upload{
		PaperMetadata: PaperMetadata{Subject: subject, CourseCode: course, ExamYear: 2024, ExamName: exam, Category: "exam"},
		Filename:      "paper.pdf",
		ContentType:   "application/pdf",
		Size:          4,
		Body:          strings.NewReader("%PDF"),
	}
}

func TestEndToEnd_SignupUploadProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.auth.Signup(ctx, SignupInput{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", Phone: "1", Secret: "pw123456"})
	require.NoError(t, err)
	userID, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)

	p, err := f.catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	require.NoError(t, err)
	assert.Equal(t, "Silver", p.Uploader.Level)
	assert.Equal(t, "Ada", p.Uploader.FirstName)

	u, err := f.auth.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), u.Points)
	assert.Equal(t, "Silver", u.Level)
}

func TestUpload_RoundTripThroughSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	created, err := f.catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	require.NoError(t, err)

	all, err := f.catalog.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Algorithms", got.Subject)
	assert.Equal(t, "CS101", got.CourseCode)
	assert.Equal(t, 2024, got.ExamYear)
	assert.Equal(t, "exam", got.Category)
	assert.Equal(t, userID, got.Uploader.ID)
	assert.Equal(t, "Ada", got.Uploader.FirstName)

	body, ct, ok := f.blobs.Get(got.StorageKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, "application/pdf", ct)
	assert.True(t, strings.HasSuffix(got.StorageKey, ".pdf"))
}

func TestSearch_SubstringCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	_, err := f.catalog.Upload(ctx, userID, upload("Thermodynamics", "PH200", "Mid"))
	require.NoError(t, err)
	_, err = f.catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	require.NoError(t, err)

	got, err := f.catalog.Search(ctx, "algo")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Algorithms", got[0].Subject)

	got, err = f.catalog.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.catalog.Search(ctx, "cs1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.catalog.Search(ctx, "MID")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Thermodynamics", got[0].Subject)

	got, err = f.catalog.Search(ctx, "biology")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t)
	userID := f.signup(t, "a@x.com", "pw123456")

	bad := upload("", "CS101", "Finals")
	_, err := f.catalog.Upload(context.Background(), userID, bad)
	assert.ErrorIs(t, err, common.ErrorValidation)

	bad = upload("Algorithms", "CS101", "Finals")
	bad.ExamYear = 0
	_, err = f.catalog.Upload(context.Background(), userID, bad)
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Equal(t, 0, f.blobs.Len())
}

func TestUpload_UnknownUploader(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.Upload(context.Background(), "missing", upload("A", "B", "C"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, f.blobs.Len())
}

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, string, string, io.Reader, int64) error {
	return errors.New("s3 down")
}

func (failingBlobs) PresignGet(context.Context, string) (string, error) {
	return "", errors.New("s3 down")
}

func TestUpload_BlobFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	catalog := NewCatalog(f.repos, failingBlobs{}, f.ledger, logging.Nop())
	_, err := catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	assert.ErrorIs(t, err, common.ErrorStorage)

	all, _ := f.catalog.Search(ctx, "")
	assert.Empty(t, all)
	u, _ := f.auth.Profile(ctx, userID)
	assert.Equal(t, int64(0), u.Points)
}

func TestUpload_MetadataFailureLeavesOrphanAndNoPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	broken := brokenPaperRepos{RepositoryManager: f.repos, err: errors.New("insert failed")}
	catalog := NewCatalog(broken, f.blobs, NewLedger(broken), logging.Nop())

	_, err := catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	assert.ErrorIs(t, err, common.ErrorStorage)

	assert.Equal(t, 1, f.blobs.Len(), "blob stays for out-of-band reconciliation")

	u, err := f.auth.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.Points)

	all, _ := f.catalog.Search(ctx, "")
	assert.Empty(t, all)
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uploader := f.signup(t, "a@x.com", "pw123456")
	reader := f.signup(t, "b@x.com", "pw123456")

	p, err := f.catalog.Upload(ctx, uploader, upload("Algorithms", "CS101", "Finals"))
	require.NoError(t, err)

	d, err := f.catalog.Download(ctx, reader, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "memory://"+p.StorageKey, d.URL)
	assert.Equal(t, int64(1), d.Downloads)

	d, err = f.catalog.Download(ctx, reader, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Downloads)

	up, _ := f.auth.Profile(ctx, uploader)
	assert.Equal(t, int64(0), up.Downloads)

	_, err = f.catalog.Download(ctx, reader, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com", "pw123456")

	p, err := f.catalog.Upload(ctx, userID, upload("Algorithms", "CS101", "Finals"))
	require.NoError(t, err)

	got, err := f.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", got.Subject)

	_, err = f.catalog.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
