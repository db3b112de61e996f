package frontmatter

import (
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/escape"
	"github.com/starford/scribe/internal/models"
)

var dateLike = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\S+)?$`)

// ParseDialectA reads a "---" delimited block of key: value lines.
func ParseDialectA(text string) (models.Metadata, string) {
	block, body, ok := split(text, delimA)
	if !ok {
		return models.Metadata{}, text
	}

	var m models.Metadata
	for _, line := range strings.Split(block, "\n") {
		key, raw, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		m.Set(key, parseValueA(key, strings.TrimSpace(raw)))
	}
	return m, body
}

func parseValueA(key, raw string) models.Value {
	if key == models.KeyTags {
		inner := raw
		if isBracketed(inner) {
			inner = inner[1 : len(inner)-1]
		} else if s, quoted := unquote(inner); quoted {
			inner = s
		}
		return models.ListValue(splitList(inner))
	}

	if s, quoted := unquote(raw); quoted {
		return models.StringValue(s)
	}
	if isBracketed(raw) {
		return models.ListValue(splitList(raw[1 : len(raw)-1]))
	}
	if dateLike.MatchString(raw) {
		if t, ok := models.ParseDate(raw); ok {
			return models.DateValue(t)
		}
	}
	return models.StringValue(raw)
}

func isBracketed(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// splitList splits on commas outside quotes. Quoted items may be empty and
// keep their edge whitespace; unquoted items are trimmed and dropped when
// empty.
func splitList(s string) []string {
	items := []string{}
	var (
		cur    strings.Builder
		quote  byte
		quoted bool
	)
	flush := func() {
		item := cur.String()
		if !quoted {
			item = strings.TrimSpace(item)
		}
		if quoted || item != "" {
			items = append(items, item)
		}
		cur.Reset()
		quoted = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			switch {
			case c == '\\' && quote == '"' && i+1 < len(s):
				i++
				cur.WriteByte(s[i])
			case c == quote:
				quote = 0
			default:
				cur.WriteByte(c)
			}
		case (c == '"' || c == '\'') && !quoted && strings.TrimSpace(cur.String()) == "":
			cur.Reset()
			quote = c
			quoted = true
		case c == ',':
			flush()
		case quoted:
			// text between a closing quote and the next comma is dropped
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return items
}

// SerializeDialectA renders metadata as a "---" block followed by the body.
func SerializeDialectA(m models.Metadata, body string) string {
	var b strings.Builder
	b.WriteString(delimA + "\n")
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(formatValueA(v))
		b.WriteByte('\n')
	}
	b.WriteString(delimA + "\n")
	b.WriteString(body)
	return b.String()
}

func formatValueA(v models.Value) string {
	switch v.Kind {
	case models.KindDate:
		return v.Date.Format(models.DateLayout)
	case models.KindList:
		items := make([]string, len(v.List))
		for i, item := range v.List {
			items[i] = formatListItemA(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return `"` + foldLines(v.Str) + `"`
	}
}

func formatListItemA(item string) string {
	item = foldLines(item)
	if item == "" || item != strings.TrimSpace(item) || strings.ContainsAny(item, `,"'[]\`) {
		return `"` + escape.EscapeQuotes(item) + `"`
	}
	return item
}
