package transcode

import (
	"fmt"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/models"
)

// Target names an output format: a frontmatter dialect, a body
// representation and a file extension.
type Target string

const (
	// TargetZola writes TOML frontmatter over a Markdown body.
	TargetZola Target = "zola"
	// TargetMarkdown writes YAML-style frontmatter over a Markdown body.
	TargetMarkdown Target = "markdown"
	// TargetHTML writes YAML-style frontmatter over an HTML body. It is also
	// the representation posts are published to a CMS in.
	TargetHTML Target = "html"
)

type targetSpec struct {
	dialect        frontmatter.Dialect
	representation models.Representation
	extension      string
}

var targets = map[Target]targetSpec{
	TargetZola:     {frontmatter.DialectB, models.RepresentationMarkdown, ".md"},
	TargetMarkdown: {frontmatter.DialectA, models.RepresentationMarkdown, ".md"},
	TargetHTML:     {frontmatter.DialectA, models.RepresentationHTML, ".html"},
}

// Targets lists the accepted target names.
var Targets = []Target{TargetZola, TargetMarkdown, TargetHTML}

// ParseTarget maps a configuration value to a Target.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := targets[t]; !ok {
		return "", fmt.Errorf("%w: target %q", apperr.ErrUnsupported, s)
	}
	return t, nil
}

// Dialect returns the frontmatter dialect written for t.
func (t Target) Dialect() frontmatter.Dialect { return targets[t].dialect }

// Representation returns the body representation written for t.
func (t Target) Representation() models.Representation { return targets[t].representation }

// Extension returns the output file extension, with the dot.
func (t Target) Extension() string { return targets[t].extension }
