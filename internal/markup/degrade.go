package markup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"github.com/starford/scribe/internal/models"
)

// Elements the rule converter maps, or unwraps without losing content.
var supportedElements = map[string]bool{
	"a": true, "b": true, "blockquote": true, "body": true, "br": true,
	"code": true, "div": true, "em": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"head": true, "html": true, "i": true, "img": true, "li": true, "ol": true,
	"p": true, "pre": true, "span": true, "strong": true, "ul": true,
}

func degraded(subject, msg string) models.Notice {
	return models.Notice{Kind: models.NoticeDegraded, Subject: subject, Message: msg}
}

// DetectHTML reports constructs in an HTML fragment that the rule converter
// drops or flattens.
func DetectHTML(fragment string) []models.Notice {
	var (
		z           = html.NewTokenizer(strings.NewReader(fragment))
		listDepth   int
		ordered     bool
		nested      bool
		unsupported = map[string]bool{}
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.EndTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		tag := strings.ToLower(string(name))
		switch tag {
		case "ul", "ol":
			switch tt {
			case html.StartTagToken:
				if listDepth > 0 {
					nested = true
				}
				if tag == "ol" {
					ordered = true
				}
				listDepth++
			case html.EndTagToken:
				if listDepth > 0 {
					listDepth--
				}
			}
			continue
		}
		if tt != html.EndTagToken && !supportedElements[tag] {
			unsupported[tag] = true
		}
	}

	var notices []models.Notice
	if ordered {
		notices = append(notices, degraded("ol", "ordered list numbering is not preserved"))
	}
	if nested {
		notices = append(notices, degraded("li", "nested lists are flattened"))
	}
	for _, tag := range sortedKeys(unsupported) {
		notices = append(notices, degraded(tag, fmt.Sprintf("<%s> is not supported and was stripped", tag)))
	}
	return notices
}

var detector = goldmark.New(goldmark.WithExtensions(extension.Table))

// DetectMarkdown reports constructs in a Markdown body that the rule
// converter does not model.
func DetectMarkdown(md string) []models.Notice {
	src := []byte(md)
	doc := detector.Parser().Parse(text.NewReader(src))

	found := map[string]string{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *extast.Table:
			found["table"] = "tables are not converted"
		case *ast.List:
			for p := node.Parent(); p != nil; p = p.Parent() {
				if p.Kind() == ast.KindListItem {
					found["list"] = "nested lists are flattened"
					break
				}
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			found["html"] = "raw HTML is passed through unchanged"
		case *ast.CodeBlock:
			found["code"] = "indented code blocks are treated as paragraphs"
		case *ast.ThematicBreak:
			found["hr"] = "thematic breaks are treated as paragraphs"
		}
		return ast.WalkContinue, nil
	})

	notices := make([]models.Notice, 0, len(found))
	for _, subject := range sortedKeys(found) {
		notices = append(notices, degraded(subject, found[subject]))
	}
	return notices
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
