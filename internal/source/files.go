package source

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/textenc"
)

// Extensions are the file types read by Files.
var Extensions = []string{".md", ".markdown", ".html", ".htm"}

// DefaultExclude skips drafting artifacts that live next to posts.
var DefaultExclude = []string{"image-prompts*", "outline*"}

// Files reads documents from a directory tree.
type Files struct {
	store   *storage.FS
	exclude []string
	log     *slog.Logger
}

// FilesOption configures Files.
type FilesOption func(*Files)

// WithExclude sets the base-name globs to skip.
func WithExclude(globs []string) FilesOption {
	return func(f *Files) { f.exclude = globs }
}

// WithFilesLogger sets the logger.
func WithFilesLogger(l *slog.Logger) FilesOption {
	return func(f *Files) { f.log = l }
}

// NewFiles returns a source over store.
func NewFiles(store *storage.FS, opts ...FilesOption) *Files {
	f := &Files{store: store, exclude: DefaultExclude, log: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Root returns the absolute input directory.
func (f *Files) Root() string { return f.store.Root() }

// Documents loads every supported, non-excluded file. Unreadable files are
// logged and skipped.
func (f *Files) Documents(ctx context.Context) ([]models.Document, error) {
	entries, err := f.store.List("", Extensions...)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.Accepts(e.Path) {
			continue
		}
		doc, err := f.Load(e.Path)
		if err != nil {
			f.log.Warn("source: skipping file", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, doc)
	}
	f.log.Info("source: files loaded", slog.Int("count", len(docs)))
	return docs, nil
}

// Accepts reports whether rel has a supported extension and is not excluded.
func (f *Files) Accepts(rel string) bool {
	if !storage.HasExt(rel, Extensions...) {
		return false
	}
	base := path.Base(filepath.ToSlash(rel))
	for _, glob := range f.exclude {
		if ok, _ := path.Match(glob, base); ok {
			return false
		}
	}
	return true
}

// Load reads one file relative to the source root.
func (f *Files) Load(rel string) (models.Document, error) {
	data, err := f.store.Read(rel)
	if err != nil {
		return models.Document{}, err
	}
	abs, err := f.store.Abs(rel)
	if err != nil {
		return models.Document{}, err
	}
	meta, body, _ := frontmatter.Parse(textenc.Decode(data, ""))
	return models.Document{
		Metadata:       meta,
		Body:           body,
		Representation: representationOf(rel),
		SourcePath:     filepath.ToSlash(rel),
		BaseDir:        filepath.Dir(abs),
		Checksum:       checksum.Sum(data),
	}, nil
}

func representationOf(name string) models.Representation {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return models.RepresentationHTML
	default:
		return models.RepresentationMarkdown
	}
}

// ValidateGlobs checks exclude patterns.
func ValidateGlobs(globs []string) error {
	for _, g := range globs {
		if _, err := path.Match(g, ""); err != nil {
			return fmt.Errorf("exclude %q: %w", g, err)
		}
	}
	return nil
}
