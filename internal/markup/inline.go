package markup

import (
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/escape"
)

var (
	mdImage  = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)\)`)
	mdLink   = regexp.MustCompile(`^\[([^\]]+)\]\(([^)\s]+)\)`)
	mdItalic = regexp.MustCompile(`^\*([^*\s](?:[^*]*[^*\s])?)\*`)
)

// EncodeInline converts the inline Markdown constructs of s to HTML. It scans
// left to right; at each position the first matching construct wins in the
// order code span, image, link, bold, italic. Code span contents and image or
// link targets are taken literally; link, bold and italic text is scanned
// again for nested constructs.
func EncodeInline(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		rest := s[i:]
		switch {
		case rest[0] == '`':
			if end := strings.IndexByte(rest[1:], '`'); end > 0 {
				b.WriteString("<code>" + escape.EncodeEntities(rest[1:1+end]) + "</code>")
				i += end + 2
				continue
			}
		case rest[0] == '!':
			if m := mdImage.FindStringSubmatch(rest); m != nil {
				b.WriteString(`<img alt="` + escape.EscapeAttr(m[1]) + `" src="` + escape.EscapeAttr(m[2]) + `">`)
				i += len(m[0])
				continue
			}
		case rest[0] == '[':
			if m := mdLink.FindStringSubmatch(rest); m != nil {
				b.WriteString(`<a href="` + escape.EscapeAttr(m[2]) + `">` + EncodeInline(m[1]) + `</a>`)
				i += len(m[0])
				continue
			}
		case strings.HasPrefix(rest, "**"):
			if end := strings.Index(rest[2:], "**"); end > 0 {
				b.WriteString("<strong>" + EncodeInline(rest[2:2+end]) + "</strong>")
				i += end + 4
				continue
			}
		case rest[0] == '*':
			if m := mdItalic.FindStringSubmatch(rest); m != nil {
				b.WriteString("<em>" + EncodeInline(m[1]) + "</em>")
				i += len(m[0])
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// inlineRules turn inline HTML back into Markdown, in precedence order.
var inlineRules = []Rule{
	{
		Name:    "strong",
		Pattern: regexp.MustCompile(`(?is)` + openTag("strong|b") + `(.*?)` + closeTag("strong|b")),
		Replace: func(g []string) string { return "**" + g[1] + "**" },
	},
	{
		Name:    "emphasis",
		Pattern: regexp.MustCompile(`(?is)` + openTag("em|i") + `(.*?)` + closeTag("em|i")),
		Replace: func(g []string) string { return "*" + g[1] + "*" },
	},
	{
		Name:    "link",
		Pattern: regexp.MustCompile(`(?is)<a\s[^>]*?\bhref=` + attrValue + `[^>]*>(.*?)</a\s*>`),
		Replace: func(g []string) string { return "[" + g[3] + "](" + firstNonEmpty(g[1], g[2]) + ")" },
	},
	{
		Name:    "image-src-alt",
		Pattern: regexp.MustCompile(`(?is)<img\b[^>]*?\ssrc=` + attrValue + `[^>]*?\salt=` + attrValue + `[^>]*>`),
		Replace: func(g []string) string {
			return "![" + firstNonEmpty(g[3], g[4]) + "](" + firstNonEmpty(g[1], g[2]) + ")"
		},
	},
	{
		Name:    "image-alt-src",
		Pattern: regexp.MustCompile(`(?is)<img\b[^>]*?\salt=` + attrValue + `[^>]*?\ssrc=` + attrValue + `[^>]*>`),
		Replace: func(g []string) string {
			return "![" + firstNonEmpty(g[1], g[2]) + "](" + firstNonEmpty(g[3], g[4]) + ")"
		},
	},
	{
		Name:    "image-src",
		Pattern: regexp.MustCompile(`(?is)<img\b[^>]*?\ssrc=` + attrValue + `[^>]*>`),
		Replace: func(g []string) string { return "![](" + firstNonEmpty(g[1], g[2]) + ")" },
	},
}

// DecodeInline converts inline HTML (strong/b, em/i, a, img) to Markdown.
// Other tags are left in place.
func DecodeInline(s string) string {
	return applyRules(inlineRules, s)
}
