// Package blobstore stores uploaded paper binaries in object storage.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore persists binaries under caller-chosen keys and hands out
// time-limited retrieval URLs.
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
}

var now = time.Now

// NewKey returns a collision-resistant storage key that keeps the original
// file extension, e.g. papers/2025/3/14/<uuid>.pdf.
func NewKey(filename string) string {
	d := now()
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("papers/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
