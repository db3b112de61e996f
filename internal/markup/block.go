package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/scribe/internal/escape"
)

var (
	mdHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	mdBullet  = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	mdOrdered = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	mdQuote   = regexp.MustCompile(`^>\s?(.*)$`)
)

const fence = "```"

// MarkdownToHTML converts a Markdown body to an HTML fragment. Supported
// blocks are fenced code, ATX headings, bullet and numbered lists,
// blockquotes and paragraphs, where a single newline becomes <br>. Blocks are
// concatenated without separators.
func MarkdownToHTML(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	lines := strings.Split(md, "\n")

	var b strings.Builder
	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			i++
		case strings.HasPrefix(trimmed, fence):
			i = encodeFence(&b, lines, i)
		case mdHeading.MatchString(trimmed):
			m := mdHeading.FindStringSubmatch(trimmed)
			level := strconv.Itoa(len(m[1]))
			b.WriteString("<h" + level + ">" + EncodeInline(strings.TrimSpace(m[2])) + "</h" + level + ">")
			i++
		case mdQuote.MatchString(trimmed):
			i = encodeQuote(&b, lines, i)
		case mdBullet.MatchString(trimmed):
			i = encodeList(&b, lines, i, mdBullet, "ul")
		case mdOrdered.MatchString(trimmed):
			i = encodeList(&b, lines, i, mdOrdered, "ol")
		default:
			i = encodeParagraph(&b, lines, i)
		}
	}
	return b.String()
}

func encodeFence(b *strings.Builder, lines []string, i int) int {
	lang := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), fence))
	var code []string
	i++
	for ; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), fence) {
			i++
			break
		}
		code = append(code, lines[i])
	}
	b.WriteString("<pre><code")
	if lang != "" {
		b.WriteString(` class="language-` + escape.EscapeAttr(lang) + `"`)
	}
	b.WriteString(">" + escape.EncodeEntities(strings.Join(code, "\n")) + "</code></pre>")
	return i
}

func encodeQuote(b *strings.Builder, lines []string, i int) int {
	var inner []string
	for ; i < len(lines); i++ {
		m := mdQuote.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			break
		}
		inner = append(inner, m[1])
	}
	b.WriteString("<blockquote>" + MarkdownToHTML(strings.Join(inner, "\n")) + "</blockquote>")
	return i
}

func encodeList(b *strings.Builder, lines []string, i int, marker *regexp.Regexp, tag string) int {
	b.WriteString("<" + tag + ">")
	for ; i < len(lines); i++ {
		m := marker.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			break
		}
		b.WriteString("<li>" + EncodeInline(strings.TrimSpace(m[1])) + "</li>")
	}
	b.WriteString("</" + tag + ">")
	return i
}

func encodeParagraph(b *strings.Builder, lines []string, i int) int {
	var para []string
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || (len(para) > 0 && startsBlock(trimmed)) {
			break
		}
		para = append(para, trimmed)
	}
	html := EncodeInline(strings.Join(para, "\n"))
	b.WriteString("<p>" + strings.ReplaceAll(html, "\n", "<br>") + "</p>")
	return i
}

func startsBlock(line string) bool {
	return strings.HasPrefix(line, fence) ||
		mdHeading.MatchString(line) ||
		mdQuote.MatchString(line) ||
		mdBullet.MatchString(line) ||
		mdOrdered.MatchString(line)
}
