package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/images"
	"github.com/starford/scribe/internal/ledger"
	"github.com/starford/scribe/internal/models"
)

type memSink struct {
	mu    sync.Mutex
	files map[string]string
	fail  string
}

func (s *memSink) Write(_ context.Context, out Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out.Source == s.fail {
		return errors.New("disk full")
	}
	if s.files == nil {
		s.files = make(map[string]string)
	}
	s.files[out.Filename] = out.Text
	return nil
}

type memLedger struct {
	mu   sync.Mutex
	rows map[string]ledger.DocumentRow
}

func (l *memLedger) GetDocument(source, target string) (*ledger.DocumentRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[source+"|"+target]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &row, nil
}

func (l *memLedger) UpsertDocument(row ledger.DocumentRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rows == nil {
		l.rows = make(map[string]ledger.DocumentRow)
	}
	l.rows[row.Source+"|"+row.Target] = row
	return nil
}

func testDocs() []models.Document {
	return []models.Document{
		{SourcePath: "b.md", Metadata: meta("title", "Second"), Body: "two", Checksum: "c2"},
		{SourcePath: "a.md", Metadata: meta("title", "First"), Body: "one", Checksum: "c1"},
		{SourcePath: "", Body: "nothing to name this by", Checksum: "c3"},
	}
}

func TestBatch_FailureDoesNotStopOthers(t *testing.T) {
	sink := &memSink{}
	report, err := NewBatch(New(TargetMarkdown), sink, WithConcurrency(2)).Run(context.Background(), testDocs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Written) != 2 || report.Written[0] != "a.md" || report.Written[1] != "b.md" {
		t.Errorf("Written = %v, want [a.md b.md]", report.Written)
	}
	if len(report.Failed) != 1 || !errors.Is(report.Failed[0], apperr.ErrMissingTitle) {
		t.Fatalf("Failed = %v, want one missing title", report.Failed)
	}
	if _, ok := sink.files["first.md"]; !ok {
		t.Errorf("first.md not written: %v", sink.files)
	}
}

func TestBatch_SinkError(t *testing.T) {
	sink := &memSink{fail: "a.md"}
	report, err := NewBatch(New(TargetMarkdown), sink).Run(context.Background(), testDocs()[:2])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failed) != 1 || report.Failed[0].Op != "write" || report.Failed[0].Source != "a.md" {
		t.Fatalf("Failed = %v", report.Failed)
	}
	if len(report.Written) != 1 || report.Written[0] != "b.md" {
		t.Errorf("Written = %v, want [b.md]", report.Written)
	}
}

func TestBatch_LedgerSkipsUnchanged(t *testing.T) {
	led := &memLedger{}
	docs := testDocs()[:2]

	first, err := NewBatch(New(TargetZola), &memSink{}, WithLedger(led)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Written) != 2 {
		t.Fatalf("first run Written = %v", first.Written)
	}
	row, err := led.GetDocument("a.md", "zola")
	if err != nil || row.Filename != "first.md" || row.Checksum != "c1" {
		t.Fatalf("ledger row = %+v, %v", row, err)
	}

	docs[1].Checksum = "c1-changed"
	second, err := NewBatch(New(TargetZola), &memSink{}, WithLedger(led)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Skipped) != 1 || second.Skipped[0] != "b.md" {
		t.Errorf("Skipped = %v, want [b.md]", second.Skipped)
	}
	if len(second.Written) != 1 || second.Written[0] != "a.md" {
		t.Errorf("Written = %v, want [a.md]", second.Written)
	}

	forced, err := NewBatch(New(TargetZola), &memSink{}, WithLedger(led), WithForce(true)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(forced.Written) != 2 || len(forced.Skipped) != 0 {
		t.Errorf("forced run Written = %v, Skipped = %v", forced.Written, forced.Skipped)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &memSink{}
	report, err := NewBatch(New(TargetMarkdown), sink).Run(ctx, testDocs()[:2])
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(report.Failed) != 2 || len(sink.files) != 0 {
		t.Errorf("Failed = %d, files = %d", len(report.Failed), len(sink.files))
	}
}

func TestBatch_NoticesCollected(t *testing.T) {
	docs := []models.Document{{SourcePath: "notes/07-untitled.md", Body: "body"}}
	report, err := NewBatch(New(TargetMarkdown), &memSink{}).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	n := report.Notices["notes/07-untitled.md"]
	if len(n) != 1 || n[0].Kind != models.NoticeDefaulted {
		t.Errorf("notices = %v", n)
	}
}

func TestBatch_LedgerTarget(t *testing.T) {
	led := &memLedger{}
	docs := testDocs()[:1]

	if _, err := NewBatch(New(TargetHTML), &memSink{}, WithLedger(led), WithLedgerTarget("ghost")).Run(context.Background(), docs); err != nil {
		t.Fatal(err)
	}
	if _, err := led.GetDocument("b.md", "ghost"); err != nil {
		t.Errorf("row under ghost: %v", err)
	}
	if _, err := led.GetDocument("b.md", "html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("row under html err = %v, want ErrNotFound", err)
	}
}

func TestBatch_FailedUploadRetriedNextRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	var calls int
	rw := images.NewRewriter(images.UploaderFunc(func(_ context.Context, p string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("cdn unavailable")
		}
		return "https://cdn.test/" + filepath.Base(p), nil
	}))
	docs := []models.Document{{
		SourcePath: "p.md",
		Metadata:   meta("title", "Pics"),
		Body:       "![a](a.png)",
		BaseDir:    dir,
		Checksum:   "c1",
	}}
	led := &memLedger{}

	first, err := NewBatch(New(TargetZola, WithRewriter(rw)), &memSink{}, WithLedger(led)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if n := first.Notices["p.md"]; len(n) != 1 || n[0].Kind != models.NoticeUploadFailed {
		t.Fatalf("first run notices = %v, want one upload_failed", n)
	}
	if row, err := led.GetDocument("p.md", "zola"); err != nil || row.Checksum != "" {
		t.Fatalf("ledger row = %+v, %v, want a row without checksum", row, err)
	}

	sink := &memSink{}
	second, err := NewBatch(New(TargetZola, WithRewriter(rw)), sink, WithLedger(led)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Written) != 1 || second.Written[0] != "p.md" {
		t.Fatalf("second run Written = %v, Skipped = %v, want [p.md]", second.Written, second.Skipped)
	}
	if got := sink.files["pics.md"]; !strings.Contains(got, "![a](https://cdn.test/a.png)") {
		t.Errorf("output = %q, want the uploaded url", got)
	}
	if row, _ := led.GetDocument("p.md", "zola"); row.Checksum != "c1" {
		t.Errorf("ledger checksum = %q, want %q", row.Checksum, "c1")
	}

	third, err := NewBatch(New(TargetZola, WithRewriter(rw)), &memSink{}, WithLedger(led)).Run(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Skipped) != 1 {
		t.Errorf("third run Skipped = %v, want [p.md]", third.Skipped)
	}
}
