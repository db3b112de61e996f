// Package uploader provides image uploaders: a local asset directory, the
// Ghost image API and a ledger-backed cache in front of either.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/storage"
)

// Upload kinds accepted in configuration.
const (
	KindNone  = "none"
	KindLocal = "local"
	KindGhost = "ghost"
)

// MaxAssetSize bounds a single uploaded file.
const MaxAssetSize = 10 << 20

var (
	allowedExtensions = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
		".avif": "image/avif",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Local copies images into an asset directory and returns their URL under
// a base URL.
type Local struct {
	store   *storage.FS
	baseURL string
	log     *slog.Logger
}

// NewLocal returns a Local uploader writing into store. baseURL prefixes
// returned names, e.g. "/images".
func NewLocal(store *storage.FS, baseURL string, log *slog.Logger) *Local {
	if log == nil {
		log = slog.Default()
	}
	return &Local{store: store, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Upload copies the file at localPath. A name already holding the same
// content is reused; a clash with different content gets a hash suffix.
func (l *Local) Upload(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("uploader: stat: %w", err)
	}
	if info.Size() > MaxAssetSize {
		return "", fmt.Errorf("uploader: file too large: %d bytes (max %d)", info.Size(), MaxAssetSize)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("uploader: read: %w", err)
	}

	name := sanitizeFilename(filepath.Base(localPath))
	ext := strings.ToLower(filepath.Ext(name))
	if err := validateContent(data, ext); err != nil {
		return "", err
	}

	if existing, err := l.store.Read(name); err == nil {
		if checksum.Sum(existing) == checksum.Sum(data) {
			return l.url(name), nil
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "-" + checksum.Short(data, 8) + ext
	}
	if err := l.store.Write(name, data); err != nil {
		return "", fmt.Errorf("uploader: save: %w", err)
	}
	l.log.Info("uploader: asset stored", slog.String("path", localPath), slog.String("name", name))
	return l.url(name), nil
}

func (l *Local) url(name string) string {
	if l.baseURL == "" {
		return name
	}
	if u, err := url.JoinPath(l.baseURL, name); err == nil {
		return u
	}
	return l.baseURL + "/" + name
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	ext := filepath.Ext(name)
	stem := safeFilenameRe.ReplaceAllString(strings.TrimSuffix(filepath.Base(name), ext), "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = uuid.New().String()
	}
	return stem + strings.ToLower(safeFilenameRe.ReplaceAllString(ext, ""))
}

// validateContent checks the extension is allowed and matches the sniffed
// content type.
func validateContent(data []byte, ext string) error {
	want, ok := allowedExtensions[ext]
	if !ok {
		return fmt.Errorf("uploader: unsupported file extension %q", ext)
	}
	if detected := mimetype.Detect(data); !detected.Is(want) {
		return fmt.Errorf("uploader: content does not match extension %s (detected: %s)", ext, detected.String())
	}
	return nil
}
