package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"

	"github.com/starford/scribe/internal/escape"
	"github.com/starford/scribe/internal/models"
)

// DescriptionLimit caps the rendered description, in runes.
const DescriptionLimit = 200

// Keys rendered in the fixed Dialect B header, or folded into description.
var reservedB = map[string]bool{
	models.KeyTitle:           true,
	models.KeyDate:            true,
	models.KeyDescription:     true,
	models.KeyTags:            true,
	models.KeyExcerpt:         true,
	models.KeyMetaDescription: true,
	models.KeyCustomExcerpt:   true,
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseDialectB reads a "+++" delimited TOML block. Invalid or unclosed
// blocks yield empty metadata and the text unchanged.
func ParseDialectB(text string) (models.Metadata, string) {
	if !strings.HasPrefix(text, delimB+"\n") {
		return models.Metadata{}, text
	}

	var (
		raw  map[string]any
		keys []toml.Key
	)
	format := frontmatter.NewFormat(delimB, delimB, func(data []byte, _ any) error {
		md, err := toml.Decode(string(data), &raw)
		if err != nil {
			return err
		}
		keys = md.Keys()
		return nil
	})

	var sink map[string]any
	rest, err := frontmatter.MustParse(strings.NewReader(text), &sink, format)
	if err != nil {
		return models.Metadata{}, text
	}
	return tomlMetadata(raw, keys), strings.TrimPrefix(string(rest), "\n")
}

func tomlMetadata(raw map[string]any, keys []toml.Key) models.Metadata {
	var m models.Metadata
	for _, k := range keys {
		if len(k) != 1 {
			continue
		}
		name := k[0]
		v, ok := raw[name]
		if !ok {
			continue
		}
		if name == models.KeyTags {
			m.Set(name, models.ListValue(toList(v)))
			continue
		}
		m.Set(name, toValue(v))
	}
	return m
}

func toValue(v any) models.Value {
	switch x := v.(type) {
	case string:
		return models.StringValue(x)
	case time.Time:
		return models.Value{Kind: models.KindDate, Date: time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)}
	case []any:
		return models.ListValue(toList(x))
	default:
		return models.StringValue(fmt.Sprint(x))
	}
}

func toList(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, toValue(item).Text())
		}
		return out
	case string:
		return models.NormalizeTags(strings.Split(x, ","))
	default:
		return []string{fmt.Sprint(x)}
	}
}

// SerializeDialectB renders the fixed header (title, date, description, tags),
// any remaining keys in order, then a blank line and the body. A missing or
// unparseable date defaults to today in UTC.
func SerializeDialectB(m models.Metadata, body string) string {
	return serializeB(m, body, time.Now)
}

func serializeB(m models.Metadata, body string, now func() time.Time) string {
	date, ok := m.Date()
	if !ok {
		date = now().UTC()
	}

	var b strings.Builder
	b.WriteString(delimB + "\n")
	fmt.Fprintf(&b, "title = %s\n", quoteB(m.Title()))
	fmt.Fprintf(&b, "date = %s\n", date.Format(models.DateLayout))
	fmt.Fprintf(&b, "description = %s\n", quoteB(Description(m)))
	fmt.Fprintf(&b, "tags = %s\n", listB(m.Tags()))
	for _, key := range m.Keys() {
		if reservedB[key] {
			continue
		}
		v, _ := m.Get(key)
		fmt.Fprintf(&b, "%s = %s\n", keyB(key), formatValueB(v))
	}
	b.WriteString(delimB + "\n\n")
	b.WriteString(body)
	return b.String()
}

// Description picks the first non-empty of description, custom_excerpt,
// excerpt, meta_description and title, flattened to one line and capped at
// DescriptionLimit runes. The result is unescaped.
func Description(m models.Metadata) string {
	var d string
	for _, key := range []string{models.KeyDescription, models.KeyCustomExcerpt, models.KeyExcerpt, models.KeyMetaDescription, models.KeyTitle} {
		if s := m.String(key); s != "" {
			d = s
			break
		}
	}
	d = strings.ReplaceAll(d, "\n", " ")
	d = strings.ReplaceAll(d, "\r", "")
	d = strings.TrimSpace(d)
	if utf8.RuneCountInString(d) > DescriptionLimit {
		d = string([]rune(d)[:DescriptionLimit])
	}
	return d
}

func quoteB(s string) string {
	return `"` + escapeControl(escape.EscapeQuotes(foldLines(s))) + `"`
}

// escapeControl writes control characters other than tab as \uXXXX, the
// only form a TOML basic string accepts for them.
func escapeControl(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if isControl(r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return (r < 0x20 && r != '\t') || r == 0x7f
}

func listB(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quoteB(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func keyB(key string) string {
	if bareKey.MatchString(key) {
		return key
	}
	return quoteB(key)
}

func formatValueB(v models.Value) string {
	switch v.Kind {
	case models.KindDate:
		return v.Date.Format(models.DateLayout)
	case models.KindList:
		return listB(v.List)
	default:
		return quoteB(v.Str)
	}
}
