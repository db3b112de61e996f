package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/scribe/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM uploads`).Scan(&count); err != nil {
		t.Fatalf("uploads table missing: %v", err)
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Source:    "posts/hello.html",
		Target:    "zola",
		Slug:      "hello",
		Filename:  "hello.md",
		Checksum:  "abc123",
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertDocument(row); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	row.Checksum = "def456"
	if err := db.UpsertDocument(row); err != nil {
		t.Fatalf("UpsertDocument (update): %v", err)
	}

	got, err := db.GetDocument("posts/hello.html", "zola")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Checksum != "def456" || got.Filename != "hello.md" || got.Slug != "hello" {
		t.Errorf("GetDocument = %+v", got)
	}

	if _, err := db.GetDocument("posts/hello.html", "markdown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other target: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Source: "a.md", Target: "zola", Checksum: "x"})

	if err := db.DeleteDocument("a.md", "zola"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := db.GetDocument("a.md", "zola"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUploads(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetUpload("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := db.UpsertUpload(UploadRow{Checksum: "c1", Source: "img.png", URL: "https://cdn/img.png"}); err != nil {
		t.Fatalf("UpsertUpload: %v", err)
	}
	got, err := db.GetUpload("c1")
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if got.URL != "https://cdn/img.png" || got.Source != "img.png" {
		t.Errorf("GetUpload = %+v", got)
	}
}
