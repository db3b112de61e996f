package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/images"
	"github.com/starford/scribe/internal/models"
)

func meta(pairs ...string) models.Metadata {
	var m models.Metadata
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], models.StringValue(pairs[i+1]))
	}
	return m
}

func TestParseTarget(t *testing.T) {
	for _, name := range []string{"zola", "Markdown", " html "} {
		if _, err := ParseTarget(name); err != nil {
			t.Errorf("ParseTarget(%q): %v", name, err)
		}
	}
	if _, err := ParseTarget("hugo"); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("ParseTarget(hugo) err = %v, want ErrUnsupported", err)
	}
	if TargetHTML.Extension() != ".html" || TargetZola.Extension() != ".md" {
		t.Errorf("unexpected extensions")
	}
}

func TestTranscode_HTMLToZola(t *testing.T) {
	m := meta("title", `A "Quoted" Title`, "excerpt", "Ex")
	m.Set("date", models.DateValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	m.Set("tags", models.ListValue([]string{"x", "y"}))
	doc := models.Document{
		Metadata:       m,
		Body:           `<p>See <a href="https://x.io">this</a></p>`,
		Representation: models.RepresentationHTML,
	}

	res, err := New(TargetZola).Transcode(context.Background(), doc)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	want := "+++\n" +
		"title = \"A \\\"Quoted\\\" Title\"\n" +
		"date = 2024-01-02\n" +
		"description = \"Ex\"\n" +
		"tags = [\"x\", \"y\"]\n" +
		"+++\n\n" +
		"See [this](https://x.io)"
	if res.Text != want {
		t.Errorf("Text =\n%s\nwant\n%s", res.Text, want)
	}
	if res.Filename != "a-quoted-title.md" || res.Slug != "a-quoted-title" {
		t.Errorf("Filename = %q, Slug = %q", res.Filename, res.Slug)
	}
	if res.Document.Representation != models.RepresentationMarkdown {
		t.Errorf("representation = %v, want markdown", res.Document.Representation)
	}
	if doc.Body != `<p>See <a href="https://x.io">this</a></p>` {
		t.Errorf("source document mutated")
	}
}

func TestTranscode_MarkdownToHTML(t *testing.T) {
	doc := models.Document{
		Metadata:       meta("title", "Hello"),
		Body:           "# Hello\n\nThis is **bold** and *italic*.",
		Representation: models.RepresentationMarkdown,
	}
	res, err := New(TargetHTML).Transcode(context.Background(), doc)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	want := "---\ntitle: \"Hello\"\n---\n<h1>Hello</h1><p>This is <strong>bold</strong> and <em>italic</em>.</p>"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.Filename != "hello.html" {
		t.Errorf("Filename = %q, want hello.html", res.Filename)
	}
}

func TestTranscode_SameRepresentationPassesThrough(t *testing.T) {
	body := "Some <span>raw</span> markdown with\n\n\n\nextra gaps"
	doc := models.Document{Metadata: meta("title", "T"), Body: body, Representation: models.RepresentationMarkdown}
	res, err := New(TargetMarkdown).Transcode(context.Background(), doc)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if !strings.HasSuffix(res.Text, "---\n"+body) {
		t.Errorf("body changed: %q", res.Text)
	}
}

func TestTranscode_TitleRecovery(t *testing.T) {
	tests := []struct {
		name string
		doc  models.Document
		want string
	}{
		{"markdown heading", models.Document{Body: "intro\n\n# From Heading #\n\ntext"}, "From Heading"},
		{"html heading", models.Document{Body: `<h1 class="t">Big &amp; <em>Bold</em></h1>`, Representation: models.RepresentationHTML}, "Big & Bold"},
		{"filename", models.Document{Body: "no heading", SourcePath: "posts/03-my-post.md"}, "my post"},
		{"h2 is not a title", models.Document{Body: "## Sub", SourcePath: "x/fallback.md"}, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(TargetMarkdown).Transcode(context.Background(), tt.doc)
			if err != nil {
				t.Fatalf("Transcode: %v", err)
			}
			if got := res.Document.Metadata.Title(); got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
			if len(res.Notices) == 0 || res.Notices[0].Kind != models.NoticeDefaulted {
				t.Errorf("notices = %v, want a defaulted notice", res.Notices)
			}
		})
	}
}

func TestTranscode_MissingTitle(t *testing.T) {
	_, err := New(TargetZola).Transcode(context.Background(), models.Document{Body: "just text"})
	if !errors.Is(err, apperr.ErrMissingTitle) {
		t.Fatalf("err = %v, want ErrMissingTitle", err)
	}
	var de *DocumentError
	if !errors.As(err, &de) {
		t.Errorf("err is %T, want *DocumentError", err)
	}
}

func TestTranscode_DefaultTags(t *testing.T) {
	tr := New(TargetZola, WithDefaultTags([]string{"NixOS", "Self-Hosting"}))

	res, err := tr.Transcode(context.Background(), models.Document{Metadata: meta("title", "T")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "tags = [\"NixOS\", \"Self-Hosting\"]\n") {
		t.Errorf("default tags missing:\n%s", res.Text)
	}

	m := meta("title", "T")
	m.Set("tags", models.ListValue([]string{"go"}))
	res, err = tr.Transcode(context.Background(), models.Document{Metadata: m})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "tags = [\"go\"]\n") {
		t.Errorf("own tags replaced:\n%s", res.Text)
	}
}

func TestTranscode_ImagesBeforeConversion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "img.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	var uploaded []string
	rw := images.NewRewriter(images.UploaderFunc(func(_ context.Context, p string) (string, error) {
		uploaded = append(uploaded, p)
		return "https://cdn.test/" + filepath.Base(p), nil
	}))
	doc := models.Document{
		Metadata:       meta("title", "Pics"),
		Body:           `<p><img src="img.png" alt="A"></p>`,
		Representation: models.RepresentationHTML,
		BaseDir:        dir,
	}

	res, err := New(TargetMarkdown, WithRewriter(rw)).Transcode(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Body != "![A](https://cdn.test/img.png)" {
		t.Errorf("body = %q", res.Document.Body)
	}
	if len(uploaded) != 1 {
		t.Errorf("uploads = %v, want 1", uploaded)
	}
}

func TestTranscode_SlugFallback(t *testing.T) {
	res, err := New(TargetZola).Transcode(context.Background(), models.Document{Metadata: meta("title", "???")})
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^post-[0-9a-f]{8}\.md$`).MatchString(res.Filename) {
		t.Errorf("Filename = %q, want post-<hash>.md", res.Filename)
	}
}
