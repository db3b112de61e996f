// Package escape provides the entity and quote escaping helpers shared by the
// frontmatter codec and the markup converters.
package escape

import (
	"regexp"
	"strings"
)

var (
	entityEncoder = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)

	// Single pass: "&amp;lt;" decodes to "&lt;", never to "<".
	entityDecoder = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&#8216;", "\u2018",
		"&#8217;", "\u2019",
		"&#8220;", "\u201c",
		"&#8221;", "\u201d",
	)

	quoteEscaper = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
	)

	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"<", "&lt;",
		">", "&gt;",
	)

	tagRe = regexp.MustCompile(`<[^>]*>`)
)

// EncodeEntities escapes &, < and > for embedding in HTML.
func EncodeEntities(text string) string {
	return entityEncoder.Replace(text)
}

// DecodeEntities reverses the named entity subset emitted by common CMS
// editors. Unknown entities are left untouched.
func DecodeEntities(text string) string {
	return entityDecoder.Replace(text)
}

// EscapeQuotes escapes backslashes and double quotes so text can sit inside a
// double-quoted scalar.
func EscapeQuotes(text string) string {
	return quoteEscaper.Replace(text)
}

// EscapeAttr escapes text for a double-quoted HTML attribute value.
func EscapeAttr(text string) string {
	return attrEscaper.Replace(text)
}

// StripTags removes every markup tag from text.
func StripTags(text string) string {
	return tagRe.ReplaceAllString(text, "")
}
