package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/ghost"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/testutil"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	testutil.WriteFile(t, dir, rel, []byte(content))
}

func TestFiles_Documents(t *testing.T) {
	dir := t.TempDir()
	post := "---\r\ntitle: \"Hello\"\r\ntags: [a, b]\r\n---\r\nBody\r\n"
	writeFile(t, dir, "a.md", post)
	writeFile(t, dir, "sub/b.html", "<h1>B</h1>")
	writeFile(t, dir, "outline-a.md", "skip")
	writeFile(t, dir, "image-prompts.md", "skip")
	writeFile(t, dir, "notes.txt", "skip")

	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	docs, err := NewFiles(store).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}

	a := docs[0]
	if a.SourcePath != "a.md" || a.Representation != models.RepresentationMarkdown {
		t.Errorf("a = %q %v", a.SourcePath, a.Representation)
	}
	if a.Metadata.Title() != "Hello" || len(a.Metadata.Tags()) != 2 {
		t.Errorf("metadata = %v", a.Metadata.Keys())
	}
	if a.Body != "Body\n" {
		t.Errorf("body = %q, want %q", a.Body, "Body\n")
	}
	if a.Checksum != checksum.Sum([]byte(post)) {
		t.Errorf("checksum = %q", a.Checksum)
	}

	b := docs[1]
	if b.SourcePath != "sub/b.html" || b.Representation != models.RepresentationHTML {
		t.Errorf("b = %q %v", b.SourcePath, b.Representation)
	}
	if b.BaseDir != filepath.Join(store.Root(), "sub") {
		t.Errorf("BaseDir = %q", b.BaseDir)
	}
}

func TestFiles_Accepts(t *testing.T) {
	f := NewFiles(nil, WithExclude([]string{"draft-*"}))
	tests := []struct {
		path string
		want bool
	}{
		{"post.md", true},
		{"post.MARKDOWN", true},
		{"dir/page.htm", true},
		{"dir/draft-x.md", false},
		{"outline.md", true},
		{"image.png", false},
	}
	for _, tt := range tests {
		if got := f.Accepts(tt.path); got != tt.want {
			t.Errorf("Accepts(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValidateGlobs(t *testing.T) {
	if err := ValidateGlobs(DefaultExclude); err != nil {
		t.Errorf("ValidateGlobs(default): %v", err)
	}
	if err := ValidateGlobs([]string{"["}); err == nil {
		t.Error("expected error for malformed glob")
	}
}

const export = `{"db":[{"data":{
 "posts":[
  {"id":"p1","title":"First Post","slug":"first-post","html":"<p>one</p>","plaintext":"one","custom_excerpt":"Custom","type":"post","status":"published","published_at":"2023-05-01T12:30:00.000Z"},
  {"id":"p2","title":"Second","slug":"second","html":"<p>two</p>","plaintext":"two plain","type":"post","status":"published"},
  {"id":"p3","title":"Draft","type":"post","status":"draft"},
  {"id":"p4","title":"About","type":"page","status":"published"}
 ],
 "tags":[{"id":"t1","name":"NixOS"},{"id":"t2","name":"Go"}],
 "posts_tags":[{"post_id":"p1","tag_id":"t1"},{"post_id":"p1","tag_id":"t2"},{"post_id":"p2","tag_id":"missing"}]
}}]}`

func TestGhostExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(export), 0o644); err != nil {
		t.Fatal(err)
	}
	docs, err := NewGhostExport(path, nil).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}

	first := docs[0]
	if first.SourcePath != "ghost/first-post" || first.Representation != models.RepresentationHTML {
		t.Errorf("first = %q %v", first.SourcePath, first.Representation)
	}
	if got := first.Metadata.String(models.KeyExcerpt); got != "Custom" {
		t.Errorf("excerpt = %q, want Custom", got)
	}
	if d, ok := first.Metadata.Date(); !ok || d.Format(models.DateLayout) != "2023-05-01" {
		t.Errorf("date = %v, %v", d, ok)
	}
	if tags := first.Metadata.Tags(); len(tags) != 2 || tags[0] != "NixOS" || tags[1] != "Go" {
		t.Errorf("tags = %v", tags)
	}

	second := docs[1]
	if got := second.Metadata.String(models.KeyExcerpt); got != "two plain" {
		t.Errorf("excerpt = %q, want plaintext", got)
	}
	if _, ok := second.Metadata.Get(models.KeyTags); ok {
		t.Error("second post should have no tags")
	}
}

func TestGhostExport_Invalid(t *testing.T) {
	if _, err := parseExport(context.Background(), []byte(`{"db":[]}`), nil); err == nil {
		t.Error("expected error for empty db")
	}
	if _, err := parseExport(context.Background(), []byte(`not json`), nil); err == nil {
		t.Error("expected error for bad json")
	}
}

type fakeLister []ghost.Post

func (f fakeLister) ListPosts(context.Context) ([]ghost.Post, error) { return f, nil }

func TestGhostAPI(t *testing.T) {
	posts := fakeLister{
		{ID: "1", Title: "Live", Slug: "live", HTML: "<p>x</p>", Status: "published", Tags: []ghost.Tag{{Name: "go"}}},
		{ID: "2", Title: "Wip", Status: "draft"},
		{ID: "3", Title: "Content API", HTML: "<p>y</p>"},
	}
	docs, err := NewGhostAPI(posts, nil).Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	if docs[0].SourcePath != "ghost/live" || docs[1].SourcePath != "ghost/3" {
		t.Errorf("paths = %q, %q", docs[0].SourcePath, docs[1].SourcePath)
	}
}

const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
 <title>Blog</title>
 <item>
  <title>Feed Post</title>
  <link>https://blog.test/feed-post/</link>
  <guid>https://blog.test/feed-post/</guid>
  <pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate>
  <category>Go</category>
  <description><![CDATA[<p>Hello <b>feed</b></p>]]></description>
 </item>
</channel>
</rss>`

func TestFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte(rss), 0o644); err != nil {
		t.Fatal(err)
	}
	docs, err := NewFeed(path, nil, nil).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len = %d, want 1", len(docs))
	}
	d := docs[0]
	if d.Metadata.Title() != "Feed Post" || d.SourcePath != "feed/feed-post" {
		t.Errorf("doc = %q %q", d.Metadata.Title(), d.SourcePath)
	}
	if d.Body != "<p>Hello <b>feed</b></p>" {
		t.Errorf("body = %q", d.Body)
	}
	if date, ok := d.Metadata.Date(); !ok || date.Format(models.DateLayout) != "2024-03-05" {
		t.Errorf("date = %v", date)
	}
	if tags := d.Metadata.Tags(); len(tags) != 1 || tags[0] != "Go" {
		t.Errorf("tags = %v", tags)
	}
}
