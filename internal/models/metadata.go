package models

import (
	"slices"
	"strings"
	"time"
)

// Well-known metadata keys.
const (
	KeyTitle           = "title"
	KeyDate            = "date"
	KeyDescription     = "description"
	KeyExcerpt         = "excerpt"
	KeyMetaDescription = "meta_description"
	KeyCustomExcerpt   = "custom_excerpt"
	KeyTags            = "tags"
)

// DateLayout is the rendering of every date value.
const DateLayout = "2006-01-02"

// ValueKind discriminates Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindDate
	KindList
)

// Value is one metadata value: a string, a calendar date or a string list.
type Value struct {
	Kind ValueKind
	Str  string
	Date time.Time
	List []string
}

// StringValue wraps s.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// DateValue truncates t to its UTC calendar day.
func DateValue(t time.Time) Value {
	u := t.UTC()
	return Value{Kind: KindDate, Date: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ListValue wraps a copy of items.
func ListValue(items []string) Value {
	return Value{Kind: KindList, List: append([]string{}, items...)}
}

// Text renders the value as plain text; lists are comma-joined.
func (v Value) Text() string {
	switch v.Kind {
	case KindDate:
		return v.Date.Format(DateLayout)
	case KindList:
		return strings.Join(v.List, ", ")
	default:
		return v.Str
	}
}

// Equal compares two values; dates compare by calendar day.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindDate:
		return v.Date.Format(DateLayout) == o.Date.Format(DateLayout)
	case KindList:
		return slices.Equal(v.List, o.List)
	default:
		return v.Str == o.Str
	}
}

// Metadata is an insertion-ordered mapping of keys to values.
// The zero value is ready to use.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// Set stores v under key. An existing key keeps its position.
func (m *Metadata) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key.
func (m *Metadata) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	return append([]string{}, m.keys...)
}

// Len returns the number of entries.
func (m Metadata) Len() int { return len(m.keys) }

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	var out Metadata
	for _, k := range m.keys {
		v := m.values[k]
		if v.Kind == KindList {
			v.List = append([]string{}, v.List...)
		}
		out.Set(k, v)
	}
	return out
}

// String returns the trimmed text of key, or "".
func (m Metadata) String(key string) string {
	v, ok := m.values[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// Title returns the trimmed title.
func (m Metadata) Title() string { return m.String(KeyTitle) }

// Tags returns the normalized tag list. A string value is split on commas.
func (m Metadata) Tags() []string {
	v, ok := m.values[KeyTags]
	if !ok {
		return []string{}
	}
	if v.Kind == KindList {
		return NormalizeTags(v.List)
	}
	return NormalizeTags(strings.Split(v.Str, ","))
}

// Date returns the publish date if one is present and parseable.
func (m Metadata) Date() (time.Time, bool) {
	v, ok := m.values[KeyDate]
	if !ok {
		return time.Time{}, false
	}
	if v.Kind == KindDate {
		return v.Date, true
	}
	return ParseDate(v.Str)
}

// Equal reports whether both mappings hold equal values in the same order.
func (m Metadata) Equal(o Metadata) bool {
	if !slices.Equal(m.keys, o.keys) {
		return false
	}
	for _, k := range m.keys {
		if !m.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate accepts the date layouts seen in CMS exports and frontmatter and
// returns the UTC calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateValue(t).Date, true
		}
	}
	return time.Time{}, false
}

// NormalizeTags trims names, drops empties and duplicates (case-sensitive),
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
