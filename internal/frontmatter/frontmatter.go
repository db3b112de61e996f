// Package frontmatter parses and serializes the two metadata block dialects:
// Dialect A ("---" delimited key: value lines) and Dialect B ("+++" delimited
// TOML). Parsing is tolerant: a missing or malformed block yields empty
// metadata and the text unchanged.
package frontmatter

import (
	"strings"

	"github.com/starford/scribe/internal/models"
)

// Dialect identifies a frontmatter syntax.
type Dialect int

const (
	DialectNone Dialect = iota
	DialectA
	DialectB
)

func (d Dialect) String() string {
	switch d {
	case DialectA:
		return "yaml"
	case DialectB:
		return "toml"
	default:
		return "none"
	}
}

const (
	delimA = "---"
	delimB = "+++"
)

// Detect reports which dialect opens text.
func Detect(text string) Dialect {
	switch {
	case strings.HasPrefix(text, delimA+"\n"):
		return DialectA
	case strings.HasPrefix(text, delimB+"\n"):
		return DialectB
	default:
		return DialectNone
	}
}

// Parse dispatches on the leading delimiter.
func Parse(text string) (models.Metadata, string, Dialect) {
	switch d := Detect(text); d {
	case DialectA:
		m, body := ParseDialectA(text)
		return m, body, d
	case DialectB:
		m, body := ParseDialectB(text)
		return m, body, d
	default:
		return models.Metadata{}, text, DialectNone
	}
}

// Serialize renders metadata and body in dialect d. DialectNone returns the
// body alone.
func Serialize(d Dialect, m models.Metadata, body string) string {
	switch d {
	case DialectA:
		return SerializeDialectA(m, body)
	case DialectB:
		return SerializeDialectB(m, body)
	default:
		return body
	}
}

// split locates a block opened by "delim\n" and closed by a line holding only
// delim. A closing delimiter at end of text is accepted.
func split(text, delim string) (block, body string, ok bool) {
	open := delim + "\n"
	if !strings.HasPrefix(text, open) {
		return "", text, false
	}
	rest := text[len(open):]
	switch {
	case strings.HasPrefix(rest, delim+"\n"):
		return "", rest[len(delim)+1:], true
	case rest == delim:
		return "", "", true
	}
	closing := "\n" + delim + "\n"
	if i := strings.Index(rest, closing); i >= 0 {
		return rest[:i], rest[i+len(closing):], true
	}
	if strings.HasSuffix(rest, "\n"+delim) {
		return rest[:len(rest)-len(delim)-1], "", true
	}
	return "", text, false
}

// unquote strips one layer of matching surrounding quotes.
func unquote(s string) (string, bool) {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}

var lineFolder = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", "")

// foldLines flattens text onto a single line.
func foldLines(s string) string {
	return lineFolder.Replace(s)
}
