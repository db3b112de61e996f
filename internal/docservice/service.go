// Package docservice converts single documents on request. It backs the
// HTTP API and the MCP tools.
package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/markup"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/slug"
	"github.com/starford/scribe/internal/textenc"
	"github.com/starford/scribe/internal/transcode"
)

// Request is one conversion request. Empty Target and Engine fall back to
// the service defaults.
type Request struct {
	Content  string
	Filename string
	Target   string
	Engine   string
}

// Response is the converted document.
type Response struct {
	Filename string          `json:"filename"`
	Slug     string          `json:"slug"`
	Content  string          `json:"content"`
	Notices  []models.Notice `json:"notices"`
}

// Service converts documents held in memory. Image references are left
// untouched because request content has no base directory.
type Service struct {
	target      transcode.Target
	engine      markup.Engine
	defaultTags []string
	log         *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaults sets the target and engine used when a request names none.
func WithDefaults(target transcode.Target, engine markup.Engine) Option {
	return func(s *Service) {
		s.target = target
		s.engine = engine
	}
}

// WithDefaultTags sets tags applied to documents without any.
func WithDefaultTags(tags []string) Option {
	return func(s *Service) { s.defaultTags = tags }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New returns a Service targeting zola with the rules engine unless
// configured otherwise.
func New(opts ...Option) *Service {
	s := &Service{target: transcode.TargetZola, engine: markup.EngineRules, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcode converts req.Content. The body representation follows the
// filename extension; without one, content starting with a tag is HTML.
func (s *Service) Transcode(ctx context.Context, req Request) (*Response, error) {
	target := s.target
	if req.Target != "" {
		t, err := transcode.ParseTarget(req.Target)
		if err != nil {
			return nil, err
		}
		target = t
	}
	engine := s.engine
	if req.Engine != "" {
		e, err := markup.ParseEngine(req.Engine)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	meta, body, _ := frontmatter.Parse(textenc.Normalize(req.Content))
	doc := models.Document{
		Metadata:       meta,
		Body:           body,
		Representation: representation(req.Filename, body),
		SourcePath:     req.Filename,
	}

	tr := transcode.New(target,
		transcode.WithConverter(markup.NewConverter(engine, markup.WithLogger(s.log))),
		transcode.WithDefaultTags(s.defaultTags),
		transcode.WithLogger(s.log),
	)
	res, err := tr.Transcode(ctx, doc)
	if err != nil {
		return nil, err
	}
	notices := res.Notices
	if notices == nil {
		notices = []models.Notice{}
	}
	return &Response{Filename: res.Filename, Slug: res.Slug, Content: res.Text, Notices: notices}, nil
}

func representation(filename, body string) models.Representation {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return models.RepresentationHTML
	case "":
		if strings.HasPrefix(strings.TrimSpace(body), "<") {
			return models.RepresentationHTML
		}
	}
	return models.RepresentationMarkdown
}

// Slugify returns the slug for title, or the hash fallback when nothing
// of the title survives.
func (s *Service) Slugify(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("slugify: %w", apperr.ErrMissingTitle)
	}
	return slug.MakeOrFallback(title), nil
}

// Formats lists the accepted targets.
func (s *Service) Formats() []Format {
	out := make([]Format, 0, len(transcode.Targets))
	for _, t := range transcode.Targets {
		out = append(out, Format{
			Target:         string(t),
			Frontmatter:    t.Dialect().String(),
			Representation: t.Representation().String(),
			Extension:      t.Extension(),
		})
	}
	return out
}
