package docservice

// FormatsGuide describes the frontmatter dialects and targets.
const FormatsGuide = `# scribe formats

## Targets

| target   | frontmatter | body     | extension |
|----------|-------------|----------|-----------|
| zola     | TOML ` + "`+++`" + `  | Markdown | .md       |
| markdown | YAML ` + "`---`" + `  | Markdown | .md       |
| html     | YAML ` + "`---`" + `  | HTML     | .html     |

## TOML block (zola)

` + "```" + `
+++
title = "Escaped \"title\""
date = 2025-01-02
description = "First of description, excerpt, meta_description, title; 200 characters at most"
tags = ["a", "b"]
+++

Body
` + "```" + `

## YAML-style block

` + "```" + `
---
title: "Hello"
date: 2025-01-02
tags: [a, "b, c"]
---
Body
` + "```" + `

## Rules

- A title is required. Without one the first level-1 heading or the file
  name is used.
- Slugs are lowercase ASCII letters, digits and single hyphens, at most
  100 characters.
- Local images are uploaded and their references rewritten. Remote images
  are left alone.
- Markup without an equivalent in the target is flattened and reported as a
  degraded notice.
`

// Format describes one target for listings.
type Format struct {
	Target         string `json:"target"`
	Frontmatter    string `json:"frontmatter"`
	Representation string `json:"representation"`
	Extension      string `json:"extension"`
}
