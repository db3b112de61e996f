// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/checksum"
)

// MaxLength bounds the length of a generated slug.
const MaxLength = 100

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-+`)
)

// Make lowercases the title, drops everything outside [a-z0-9], whitespace
// and '-', then joins words with single dashes. The result matches
// ^[a-z0-9]+(-[a-z0-9]+)*$ or is empty.
func Make(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.Trim(s[:MaxLength], "-")
	}
	return s
}

// Fallback returns a stable identifier for titles that slugify to nothing.
func Fallback(seed string) string {
	return "post-" + checksum.Short([]byte(seed), 8)
}

// MakeOrFallback returns Make(title), or Fallback(title) when that is empty.
func MakeOrFallback(title string) string {
	if s := Make(title); s != "" {
		return s
	}
	return Fallback(title)
}
