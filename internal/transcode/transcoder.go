// Package transcode turns source documents into target documents: it
// recovers the title, rehomes images, converts the body and serializes the
// metadata for the target dialect.
package transcode

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/escape"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/images"
	"github.com/starford/scribe/internal/markup"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/slug"
)

// Result is a transcoded document ready for a sink.
type Result struct {
	Document models.Document
	Slug     string
	Filename string
	Text     string
	Notices  []models.Notice
}

// Transcoder converts documents to one target. It holds no per-document
// state and is safe for concurrent use.
type Transcoder struct {
	target      Target
	converter   *markup.Converter
	rewriter    *images.Rewriter
	defaultTags []string
	log         *slog.Logger
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithConverter sets the body converter. The default uses the rules engine.
func WithConverter(c *markup.Converter) Option {
	return func(t *Transcoder) { t.converter = c }
}

// WithRewriter enables image rehoming.
func WithRewriter(r *images.Rewriter) Option {
	return func(t *Transcoder) { t.rewriter = r }
}

// WithDefaultTags sets the tags applied to documents that have none.
func WithDefaultTags(tags []string) Option {
	return func(t *Transcoder) { t.defaultTags = models.NormalizeTags(tags) }
}

// WithLogger sets the transcoder logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transcoder) { t.log = l }
}

// New returns a Transcoder for target.
func New(target Target, opts ...Option) *Transcoder {
	t := &Transcoder{target: target, log: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	if t.converter == nil {
		t.converter = markup.NewConverter(markup.EngineRules, markup.WithLogger(t.log))
	}
	return t
}

// Target returns the configured target.
func (t *Transcoder) Target() Target { return t.target }

// Transcode runs the pipeline for one document: title recovery, image
// rewriting, body conversion, slug derivation and serialization, in that
// order. Images are rewritten before conversion so paths are still in the
// source syntax. Only an unrecoverable title fails the document.
func (t *Transcoder) Transcode(ctx context.Context, doc models.Document) (*Result, error) {
	var notices []models.Notice

	meta := doc.Metadata.Clone()
	if meta.Title() == "" {
		title := RecoverTitle(doc)
		if title == "" {
			return nil, &DocumentError{Source: doc.SourcePath, Op: "transcode", Err: apperr.ErrMissingTitle}
		}
		meta.Set(models.KeyTitle, models.StringValue(title))
		notices = append(notices, models.Notice{Kind: models.NoticeDefaulted, Subject: models.KeyTitle, Message: "title recovered as " + title})
	}
	if len(meta.Tags()) == 0 && len(t.defaultTags) > 0 {
		meta.Set(models.KeyTags, models.ListValue(t.defaultTags))
		notices = append(notices, models.Notice{Kind: models.NoticeDefaulted, Subject: models.KeyTags, Message: "default tags applied"})
	}

	body := doc.Body
	if t.rewriter != nil {
		var n []models.Notice
		body, n = t.rewriter.Rewrite(ctx, body, doc.BaseDir)
		notices = append(notices, n...)
	}

	body, n := t.converter.Convert(body, doc.Representation, t.target.Representation())
	notices = append(notices, n...)

	out := doc.WithMetadata(meta).WithBody(body, t.target.Representation())
	s := slug.MakeOrFallback(meta.Title())

	for _, notice := range notices {
		t.log.Warn("transcode: "+string(notice.Kind),
			slog.String("source", doc.SourcePath),
			slog.String("subject", notice.Subject),
			slog.String("message", notice.Message),
		)
	}

	return &Result{
		Document: out,
		Slug:     s,
		Filename: s + t.target.Extension(),
		Text:     frontmatter.Serialize(t.target.Dialect(), meta, body),
		Notices:  notices,
	}, nil
}

var (
	markdownH1 = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t#]*$`)
	htmlH1     = regexp.MustCompile(`(?is)<h1(?:\s[^>]*)?>(.*?)</h1\s*>`)
)

// RecoverTitle returns the first level-1 heading of the body, else a title
// derived from the source file name, else "".
func RecoverTitle(doc models.Document) string {
	if doc.Representation == models.RepresentationHTML {
		if m := htmlH1.FindStringSubmatch(doc.Body); m != nil {
			if title := strings.TrimSpace(escape.DecodeEntities(escape.StripTags(m[1]))); title != "" {
				return title
			}
		}
	} else if m := markdownH1.FindStringSubmatch(doc.Body); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	return models.TitleFromFilename(doc.SourcePath)
}
