// Package images finds image references in document bodies and rehomes local
// ones through an Uploader.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/escape"
	"github.com/starford/scribe/internal/models"
)

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, localPath string) (string, error)

func (f UploaderFunc) Upload(ctx context.Context, localPath string) (string, error) {
	return f(ctx, localPath)
}

var (
	markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	htmlImage     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	htmlSrc       = regexp.MustCompile(`(?is)\ssrc=(?:"([^"]*)"|'([^']*)')`)
	htmlAlt       = regexp.MustCompile(`(?is)\salt=(?:"([^"]*)"|'([^']*)')`)
)

// Scan returns every image reference in body, Markdown references first,
// each in source order. Markdown bodies may carry raw <img> tags, so both
// syntaxes are scanned regardless of representation.
func Scan(body string) []models.ImageReference {
	var refs []models.ImageReference
	for _, m := range markdownImage.FindAllStringSubmatch(body, -1) {
		refs = append(refs, models.ImageReference{Alt: m[1], Path: m[2], Fragment: m[0]})
	}
	for _, tag := range htmlImage.FindAllString(body, -1) {
		src := htmlSrc.FindStringSubmatch(tag)
		if src == nil {
			continue
		}
		ref := models.ImageReference{Path: escape.DecodeEntities(src[1] + src[2]), Fragment: tag}
		if alt := htmlAlt.FindStringSubmatch(tag); alt != nil {
			ref.Alt = escape.DecodeEntities(alt[1] + alt[2])
		}
		refs = append(refs, ref)
	}
	return refs
}

// Rewriter uploads local image references and points them at the returned
// URLs. It holds no per-document state and is safe for concurrent use when
// its Uploader is.
type Rewriter struct {
	uploader Uploader
	public   string
	log      *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets the rewriter logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) { r.log = l }
}

// WithPublicPrefix treats site-root paths under prefix, such as "/images",
// as already rehomed. Use it when the uploader returns paths rather than
// absolute URLs.
func WithPublicPrefix(prefix string) Option {
	return func(r *Rewriter) {
		if p := strings.Trim(prefix, "/"); p != "" && strings.HasPrefix(prefix, "/") {
			r.public = "/" + p + "/"
		}
	}
}

// NewRewriter returns a Rewriter that uploads through u.
func NewRewriter(u Uploader, opts ...Option) *Rewriter {
	r := &Rewriter{uploader: u, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite uploads every local image in body and replaces each occurrence of
// the original fragment. Remote references are left alone, so a second run
// over the output is a no-op. Missing files and failed uploads leave the
// reference untouched and produce a notice; they never fail the document.
// Uploads happen one at a time, once per resolved path.
func (r *Rewriter) Rewrite(ctx context.Context, body, baseDir string) (string, []models.Notice) {
	var (
		notices []models.Notice
		done    = make(map[string]bool)
		uploads = make(map[string]string)
		failed  = make(map[string]bool)
	)
	for _, ref := range Scan(body) {
		if ref.IsRemote() || r.published(ref.Path) || done[ref.Fragment] {
			continue
		}
		done[ref.Fragment] = true

		resolved, ok := resolve(ref.Path, baseDir)
		if !ok {
			notices = append(notices, models.Notice{
				Kind:    models.NoticeSkipped,
				Subject: ref.Path,
				Message: "image not found: " + resolved,
			})
			r.log.Warn("images: missing image", slog.String("path", ref.Path), slog.String("resolved", resolved))
			continue
		}
		if failed[resolved] {
			continue
		}

		target, seen := uploads[resolved]
		if !seen {
			var err error
			target, err = r.upload(ctx, resolved)
			if err != nil {
				failed[resolved] = true
				notices = append(notices, models.Notice{
					Kind:    models.NoticeUploadFailed,
					Subject: ref.Path,
					Message: err.Error(),
				})
				r.log.Warn("images: upload failed", slog.String("path", resolved), slog.String("error", err.Error()))
				continue
			}
			uploads[resolved] = target
			r.log.Debug("images: uploaded", slog.String("path", resolved), slog.String("url", target))
		}
		body = strings.ReplaceAll(body, ref.Fragment, withPath(ref.Fragment, target))
	}
	return body, notices
}

func (r *Rewriter) published(path string) bool {
	return r.public != "" && strings.HasPrefix(path, r.public)
}

func (r *Rewriter) upload(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	target, err := r.uploader.Upload(ctx, path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	if target == "" {
		return "", fmt.Errorf("upload %s: uploader returned no url", filepath.Base(path))
	}
	return target, nil
}

// resolve joins a reference path onto baseDir and reports whether a regular
// file exists there. Percent-encoded paths are tried decoded as well.
func resolve(ref, baseDir string) (string, bool) {
	candidates := []string{ref}
	if unescaped, err := url.PathUnescape(ref); err == nil && unescaped != ref {
		candidates = append(candidates, unescaped)
	}
	var first string
	for i, c := range candidates {
		p := filepath.FromSlash(c)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		p = filepath.Clean(p)
		if i == 0 {
			first = p
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return first, false
}

// withPath returns fragment with its image path replaced by target.
func withPath(fragment, target string) string {
	if strings.HasPrefix(fragment, "!") {
		loc := markdownImage.FindStringSubmatchIndex(fragment)
		if loc == nil {
			return fragment
		}
		return fragment[:loc[4]] + target + fragment[loc[5]:]
	}
	loc := htmlSrc.FindStringSubmatchIndex(fragment)
	if loc == nil {
		return fragment
	}
	start, end := loc[2], loc[3]
	if start < 0 {
		start, end = loc[4], loc[5]
	}
	return fragment[:start] + escape.EscapeAttr(target) + fragment[end:]
}
