package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/images"
	"github.com/starford/scribe/internal/ledger"
)

// UploadStore remembers uploads by content hash.
type UploadStore interface {
	GetUpload(checksum string) (*ledger.UploadRow, error)
	UpsertUpload(row ledger.UploadRow) error
}

// Cached skips uploads of content uploaded before, across runs.
type Cached struct {
	next  images.Uploader
	store UploadStore
	log   *slog.Logger
}

var _ images.Uploader = (*Cached)(nil)

// NewCached wraps next with a content-hash cache kept in store.
func NewCached(next images.Uploader, store UploadStore, log *slog.Logger) *Cached {
	if log == nil {
		log = slog.Default()
	}
	return &Cached{next: next, store: store, log: log}
}

// Upload returns the remembered URL for identical content, else uploads
// and records the result.
func (c *Cached) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("uploader: read: %w", err)
	}
	sum := checksum.Sum(data)

	row, err := c.store.GetUpload(sum)
	switch {
	case err == nil && row.URL != "":
		c.log.Debug("uploader: cache hit", slog.String("path", localPath), slog.String("url", row.URL))
		return row.URL, nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		c.log.Warn("uploader: cache lookup failed", slog.String("path", localPath), slog.String("error", err.Error()))
	}

	u, err := c.next.Upload(ctx, localPath)
	if err != nil {
		return "", err
	}
	if err := c.store.UpsertUpload(ledger.UploadRow{Checksum: sum, Source: localPath, URL: u}); err != nil {
		c.log.Warn("uploader: cache update failed", slog.String("path", localPath), slog.String("error", err.Error()))
	}
	return u, nil
}
