// Package markup converts document bodies between Markdown and HTML.
//
// Both directions are expressed as explicit, ordered rule lists. The order
// of each list is its precedence: a later rule only sees text the earlier
// rules left behind.
package markup

import "regexp"

// Rule is one named rewrite step.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(groups []string) string
}

// Apply rewrites every non-overlapping match of the rule in s.
func (r Rule) Apply(s string) string {
	return r.Pattern.ReplaceAllStringFunc(s, func(match string) string {
		return r.Replace(r.Pattern.FindStringSubmatch(match))
	})
}

func applyRules(rules []Rule, s string) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// openTag matches an opening tag by exact name, tolerating attributes, so
// "b" never matches <br> or <blockquote>.
func openTag(names string) string {
	return `<(?:` + names + `)(?:\s[^>]*)?>`
}

func closeTag(names string) string {
	return `</(?:` + names + `)\s*>`
}

// attrValue captures a double- or single-quoted attribute value in two groups.
const attrValue = `(?:"([^"]*)"|'([^']*)')`

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
