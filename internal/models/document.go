// Package models defines the domain types for scribe.
package models

import (
	"path"
	"regexp"
	"strings"
)

// Representation identifies the markup a Document body is written in.
type Representation int

const (
	RepresentationMarkdown Representation = iota
	RepresentationHTML
)

func (r Representation) String() string {
	if r == RepresentationHTML {
		return "html"
	}
	return "markdown"
}

// Document is the unit of transcoding. Transform methods return copies.
type Document struct {
	Metadata       Metadata
	Body           string
	Representation Representation
	// SourcePath is the path the document was read from, used for the
	// filename title fallback and for ledger bookkeeping.
	SourcePath string
	// BaseDir resolves relative image references.
	BaseDir  string
	Checksum string
}

// WithBody returns a copy of d with the body replaced.
func (d Document) WithBody(body string, rep Representation) Document {
	out := d
	out.Metadata = d.Metadata.Clone()
	out.Body = body
	out.Representation = rep
	return out
}

// WithMetadata returns a copy of d carrying m.
func (d Document) WithMetadata(m Metadata) Document {
	out := d
	out.Metadata = m.Clone()
	return out
}

// ImageReference is an image embedded in a body.
type ImageReference struct {
	Alt  string
	Path string
	// Fragment is the exact source text of the reference.
	Fragment string
}

var (
	schemeRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]+:`)
	leadNumRe  = regexp.MustCompile(`^\d+-`)
	separators = strings.NewReplacer("-", " ", "_", " ")
)

// IsRemote reports whether the path carries a URI scheme or is
// protocol-relative. Single-letter schemes are Windows drive letters.
func (r ImageReference) IsRemote() bool {
	return IsRemotePath(r.Path)
}

// IsRemotePath classifies a reference path as remote.
func IsRemotePath(p string) bool {
	return strings.HasPrefix(p, "//") || schemeRe.MatchString(p)
}

// TitleFromFilename turns "03-my-first-post.md" into "my first post".
func TitleFromFilename(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = leadNumRe.ReplaceAllString(base, "")
	return strings.TrimSpace(separators.Replace(base))
}
