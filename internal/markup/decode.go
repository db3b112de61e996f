package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/scribe/internal/escape"
)

// Placeholder delimiters come from the Unicode private use area so no rule
// can match inside protected code.
const (
	placeholderOpen  = "\uE000"
	placeholderClose = "\uE001"
)

var (
	codeLanguage = regexp.MustCompile(`(?i)\bclass=["'][^"']*?\blanguage-([\w+#.-]+)`)
	placeholder  = regexp.MustCompile(placeholderOpen + `(\d+)` + placeholderClose)
	innerPara    = regexp.MustCompile(`(?i)</?p(?:\s[^>]*)?>`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	trailingWS   = regexp.MustCompile(`(?m)[ \t]+$`)

	htmlPreCode    = regexp.MustCompile(`(?is)` + openTag("pre") + `\s*<code(\s[^>]*)?>(.*?)</code\s*>\s*` + closeTag("pre"))
	htmlPre        = regexp.MustCompile(`(?is)` + openTag("pre") + `(.*?)` + closeTag("pre"))
	htmlCode       = regexp.MustCompile(`(?is)` + openTag("code") + `(.*?)` + closeTag("code"))
	htmlHeadings   = headingPatterns()
	htmlListItem   = regexp.MustCompile(`(?is)` + openTag("li") + `(.*?)` + closeTag("li"))
	htmlListWrap   = regexp.MustCompile(`(?i)</?(?:ul|ol)(?:\s[^>]*)?>`)
	htmlBlockquote = regexp.MustCompile(`(?is)` + openTag("blockquote") + `(.*?)` + closeTag("blockquote"))
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlResidual   = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*\b[^>]*>`)

	// liveTag matches a "<" that would open a tag once entities are decoded.
	liveTag = regexp.MustCompile(`<(/?[A-Za-z!])`)
)

func headingPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 6)
	for i := range out {
		tag := "h" + strconv.Itoa(i+1)
		out[i] = regexp.MustCompile(`(?is)` + openTag(tag) + `(.*?)` + closeTag(tag))
	}
	return out
}

// decoder carries the state of one HTML to Markdown conversion.
type decoder struct {
	protected []string
}

func (d *decoder) protect(markdown string) string {
	d.protected = append(d.protected, markdown)
	return placeholderOpen + strconv.Itoa(len(d.protected)-1) + placeholderClose
}

func (d *decoder) restore(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(placeholder.FindStringSubmatch(m)[1])
		if err != nil || n >= len(d.protected) {
			return m
		}
		return d.protected[n]
	})
}

func codeText(s string) string {
	return escape.DecodeEntities(escape.StripTags(s))
}

func (d *decoder) fencedCode(lang, code string) string {
	code = strings.TrimRight(codeText(code), "\n")
	return "\n\n" + d.protect(fence+lang+"\n"+code+"\n"+fence) + "\n\n"
}

// rules returns the staged rule list for one conversion. Stage order:
// comments, protected code, headings, inline markup, lists, blockquotes,
// line and paragraph breaks, residual tags.
func (d *decoder) rules() []Rule {
	rules := []Rule{
		{
			Name:    "comment",
			Pattern: htmlComment,
			Replace: func([]string) string { return "" },
		},
		{
			Name:    "pre-code",
			Pattern: htmlPreCode,
			Replace: func(g []string) string {
				var lang string
				if m := codeLanguage.FindStringSubmatch(g[1]); m != nil {
					lang = m[1]
				}
				return d.fencedCode(lang, g[2])
			},
		},
		{
			Name:    "pre",
			Pattern: htmlPre,
			Replace: func(g []string) string { return d.fencedCode("", g[1]) },
		},
		{
			Name:    "code-span",
			Pattern: htmlCode,
			Replace: func(g []string) string { return d.protect("`" + codeText(g[1]) + "`") },
		},
	}
	for i, pattern := range htmlHeadings {
		hashes := strings.Repeat("#", i+1)
		rules = append(rules, Rule{
			Name:    "heading-h" + strconv.Itoa(i+1),
			Pattern: pattern,
			Replace: func(g []string) string { return "\n\n" + hashes + " " + strings.TrimSpace(g[1]) + "\n\n" },
		})
	}
	rules = append(rules, inlineRules...)
	rules = append(rules,
		Rule{
			Name:    "list-item",
			Pattern: htmlListItem,
			Replace: func(g []string) string {
				return "- " + strings.TrimSpace(innerPara.ReplaceAllString(g[1], "")) + "\n"
			},
		},
		Rule{
			// <ol> numbering is not reconstructed.
			Name:    "list-wrapper",
			Pattern: htmlListWrap,
			Replace: func([]string) string { return "\n" },
		},
		Rule{
			Name:    "blockquote",
			Pattern: htmlBlockquote,
			Replace: func(g []string) string { return "\n\n" + quoteLines(applyRules(breakRules, g[1])) + "\n\n" },
		},
	)
	rules = append(rules, breakRules...)
	rules = append(rules, Rule{
		Name:    "residual-tag",
		Pattern: htmlResidual,
		Replace: func([]string) string { return "" },
	})
	return rules
}

var breakRules = []Rule{
	{
		Name:    "line-break",
		Pattern: regexp.MustCompile(`(?i)<br\s*/?>`),
		Replace: func([]string) string { return "\n" },
	},
	{
		Name:    "paragraph",
		Pattern: regexp.MustCompile(`(?is)` + openTag("p") + `(.*?)` + closeTag("p")),
		Replace: func(g []string) string { return g[1] + "\n\n" },
	},
	{
		Name:    "division",
		Pattern: regexp.MustCompile(`(?is)` + openTag("div") + `(.*?)` + closeTag("div")),
		Replace: func(g []string) string { return g[1] + "\n" },
	},
}

func quoteLines(s string) string {
	s = strings.TrimSpace(manyNewlines.ReplaceAllString(s, "\n\n"))
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// HTMLToMarkdown converts an HTML fragment to Markdown. It never fails;
// unsupported markup is stripped. Escaped markup in the prose stays escaped.
func HTMLToMarkdown(html string) string {
	d := &decoder{}
	out := applyRules(d.rules(), strings.ReplaceAll(html, "\r\n", "\n"))
	out = liveTag.ReplaceAllString(escape.DecodeEntities(out), "&lt;$1")
	return d.restore(Tidy(out))
}

// Tidy collapses runs of three or more newlines to two, strips trailing
// whitespace from every line and trims the result.
func Tidy(s string) string {
	s = trailingWS.ReplaceAllString(s, "")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
