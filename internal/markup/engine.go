package markup

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
)

// Engine selects how bodies are converted between representations.
type Engine string

const (
	// EngineRules uses the ordered rule lists of this package.
	EngineRules Engine = "rules"
	// EngineCommonMark uses full CommonMark libraries in both directions and
	// falls back to the rules on error.
	EngineCommonMark Engine = "commonmark"
	// EnginePassthrough keeps HTML bodies as HTML inside Markdown output,
	// removing only CMS editor artifacts.
	EnginePassthrough Engine = "passthrough"
)

// Engines lists the accepted engine names.
var Engines = []Engine{EngineRules, EngineCommonMark, EnginePassthrough}

// ParseEngine maps a configuration value to an Engine. Empty means rules.
func ParseEngine(s string) (Engine, error) {
	if s == "" {
		return EngineRules, nil
	}
	for _, e := range Engines {
		if string(e) == strings.ToLower(s) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: engine %q", apperr.ErrUnsupported, s)
}

// Converter converts bodies with one engine. It is safe for concurrent use.
type Converter struct {
	engine Engine
	md     goldmark.Markdown
	log    *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for engine fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// NewConverter returns a Converter for engine.
func NewConverter(engine Engine, opts ...Option) *Converter {
	c := &Converter{
		engine: engine,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the configured engine.
func (c *Converter) Engine() Engine { return c.engine }

// Convert returns body in representation to, with degradation notices.
// Bodies already in the target representation are returned unchanged.
func (c *Converter) Convert(body string, from, to models.Representation) (string, []models.Notice) {
	switch {
	case from == to:
		return body, nil
	case to == models.RepresentationMarkdown:
		return c.toMarkdown(body)
	default:
		return c.toHTML(body)
	}
}

func (c *Converter) toMarkdown(body string) (string, []models.Notice) {
	switch c.engine {
	case EnginePassthrough:
		return Passthrough(body), nil
	case EngineCommonMark:
		md, err := convertHTMLToMarkdown(body)
		if err == nil {
			return Tidy(md), nil
		}
		c.log.Warn("markup: commonmark html conversion failed, using rules", slog.String("error", err.Error()))
		out, notices := rulesToMarkdown(body)
		return out, append(notices, degraded("engine", "commonmark conversion failed; rules used"))
	default:
		return rulesToMarkdown(body)
	}
}

func (c *Converter) toHTML(body string) (string, []models.Notice) {
	if c.engine == EngineCommonMark {
		var buf bytes.Buffer
		err := c.md.Convert([]byte(body), &buf)
		if err == nil {
			return strings.TrimSpace(buf.String()), nil
		}
		c.log.Warn("markup: commonmark markdown conversion failed, using rules", slog.String("error", err.Error()))
	}
	return MarkdownToHTML(body), DetectMarkdown(body)
}

func rulesToMarkdown(body string) (string, []models.Notice) {
	return HTMLToMarkdown(body), DetectHTML(body)
}

func convertHTMLToMarkdown(htmlStr string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(htmlStr)
}

var (
	kgCard    = regexp.MustCompile(`<!--\s*kg-card-(?:begin|end):[^>]*?-->`)
	gistEmbed = regexp.MustCompile(`(?is)<script[^>]*\ssrc=["']https://gist\.github\.com/([^/"']+)/([^"']+?)\.js["'][^>]*>\s*</script\s*>`)
)

// Passthrough keeps an HTML body as is, removing editor card comments and
// replacing Gist script embeds, which static sites cannot run, with links.
func Passthrough(body string) string {
	body = kgCard.ReplaceAllString(body, "")
	body = gistEmbed.ReplaceAllString(body, "\n**Code:** [View GitHub Gist](https://gist.github.com/$1/$2)\n\n")
	return strings.TrimSpace(body)
}
