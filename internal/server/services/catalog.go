package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/dbx"
	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/dmitrijs2005/paperhub/internal/server/blobstore"
	"github.com/dmitrijs2005/paperhub/internal/server/levels"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
)

// PaperMetadata describes an uploaded paper.
type PaperMetadata struct {
	Subject    string
	CourseCode string
	ExamYear   int
	ExamName   string
	Category   string
}

// Upload is one paper binary with its metadata.
type Upload struct {
	PaperMetadata
	Filename    string
	ContentType string
	// Size is the body length in bytes, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Download is the result of a download request.
type Download struct {
	URL       string
	Downloads int64
}

// Catalog binds stored binaries to searchable metadata and credits uploaders.
type Catalog struct {
	repomanager repomanager.RepositoryManager
	blobs       blobstore.BlobStore
	ledger      *Ledger
	log         logging.Logger
	newKey      func(filename string) string
}

func NewCatalog(m repomanager.RepositoryManager, blobs blobstore.BlobStore, ledger *Ledger, log logging.Logger) *Catalog {
	return &Catalog{
		repomanager: m,
		blobs:       blobs,
		ledger:      ledger,
		log:         log.With("module", "catalog"),
		newKey:      blobstore.NewKey,
	}
}

func (m PaperMetadata) normalized() (PaperMetadata, error) {
	m.Subject = strings.TrimSpace(m.Subject)
	m.CourseCode = strings.TrimSpace(m.CourseCode)
	m.ExamName = strings.TrimSpace(m.ExamName)
	m.Category = strings.TrimSpace(m.Category)
	if m.Subject == "" || m.CourseCode == "" || m.Category == "" || m.ExamYear <= 0 {
		return m, common.ErrorValidation
	}
	return m, nil
}

// Upload stores the binary, then records the paper and awards the uploader
// in one transaction. If that transaction fails the stored blob is left in
// place, logged with its key for out-of-band reconciliation, and the upload
// is reported as a storage failure.
func (c *Catalog) Upload(ctx context.Context, userID string, in Upload) (*models.PaperWithUploader, error) {
	meta, err := in.PaperMetadata.normalized()
	if err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, common.ErrorValidation
	}

	uploader, err := c.repomanager.Users(c.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageErr("lookup uploader", err)
	}

	key := c.newKey(in.Filename)
	if err := c.blobs.Put(ctx, key, in.ContentType, in.Body, in.Size); err != nil {
		return nil, storageErr("store blob", err)
	}

	paper := &models.Paper{
		Subject:    meta.Subject,
		CourseCode: meta.CourseCode,
		ExamYear:   meta.ExamYear,
		ExamName:   meta.ExamName,
		Category:   meta.Category,
		StorageKey: key,
		UploaderID: userID,
	}

	var standing Standing
	err = c.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := c.repomanager.Papers(tx).Create(ctx, paper); err != nil {
			return err
		}
		var err error
		standing, err = c.ledger.Award(ctx, tx, userID, levels.PointsPerUpload)
		return err
	})
	if err != nil {
		c.log.Error(ctx, "orphaned blob after failed upload", "storage_key", key, "user_id", userID, "error", err)
		return nil, storageErr("record paper", err)
	}

	c.log.Info(ctx, "paper uploaded", "paper_id", paper.ID, "user_id", userID, "points", standing.Points)

	return &models.PaperWithUploader{
		Paper: *paper,
		Uploader: models.Uploader{
			ID:         uploader.ID,
			FirstName:  uploader.FirstName,
			LastName:   uploader.LastName,
			ProfilePic: uploader.ProfilePic,
			Level:      standing.Level,
		},
	}, nil
}

// Search returns papers whose subject, course code or exam name contain
// query, ignoring case. An empty query returns the whole catalog.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.PaperWithUploader, error) {
	papers, err := c.repomanager.Papers(c.repomanager.DB()).Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, storageErr("search papers", err)
	}
	return papers, nil
}

func (c *Catalog) Get(ctx context.Context, paperID string) (*models.PaperWithUploader, error) {
	p, err := c.repomanager.Papers(c.repomanager.DB()).GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageErr("get paper", err)
	}
	return p, nil
}

// Download counts a download against the caller and returns a presigned
// URL for the binary.
func (c *Catalog) Download(ctx context.Context, userID, paperID string) (*Download, error) {
	p, err := c.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	url, err := c.blobs.PresignGet(ctx, p.StorageKey)
	if err != nil {
		return nil, storageErr("presign download", err)
	}

	n, err := c.repomanager.Users(c.repomanager.DB()).IncrementDownloads(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: count download: %v", common.ErrorStorage, err)
	}

	return &Download{URL: url, Downloads: n}, nil
}
