package transcode

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/ledger"
	"github.com/starford/scribe/internal/models"
)

// Output is what a Sink receives for one document.
type Output struct {
	Source   string
	Filename string
	Slug     string
	Text     string
	Document models.Document
}

// Sink persists transcoded documents.
type Sink interface {
	Write(ctx context.Context, out Output) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, out Output) error

func (f SinkFunc) Write(ctx context.Context, out Output) error { return f(ctx, out) }

// Ledger is the part of the ledger the batch runner needs.
type Ledger interface {
	GetDocument(source, target string) (*ledger.DocumentRow, error)
	UpsertDocument(row ledger.DocumentRow) error
}

// Report summarizes a batch run.
type Report struct {
	Written []string
	Skipped []string
	Failed  []*DocumentError
	Notices map[string][]models.Notice
}

// Batch transcodes many documents concurrently and writes them to a sink.
// A failing document is recorded in the report and never stops the others.
type Batch struct {
	transcoder  *Transcoder
	sink        Sink
	ledger      Ledger
	ledgerKey   string
	concurrency int
	force       bool
	log         *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithConcurrency bounds the number of documents in flight.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLedger skips documents whose checksum is unchanged since the last
// successful write and records new writes.
func WithLedger(l Ledger) BatchOption {
	return func(b *Batch) { b.ledger = l }
}

// WithLedgerTarget records ledger rows under name instead of the
// transcoder target. Sinks sharing a target keep separate histories this way.
func WithLedgerTarget(name string) BatchOption {
	return func(b *Batch) { b.ledgerKey = name }
}

// WithForce writes every document even when the ledger says it is unchanged.
func WithForce(force bool) BatchOption {
	return func(b *Batch) { b.force = force }
}

// WithBatchLogger sets the batch logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) { b.log = l }
}

// NewBatch returns a Batch writing t's output to sink.
func NewBatch(t *Transcoder, sink Sink, opts ...BatchOption) *Batch {
	b := &Batch{
		transcoder:  t,
		sink:        sink,
		concurrency: runtime.GOMAXPROCS(0),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run processes docs. The returned error is only the context's error when
// the run was cancelled; per-document failures are in the report.
func (b *Batch) Run(ctx context.Context, docs []models.Document) (*Report, error) {
	report := &Report{Notices: make(map[string][]models.Notice)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			written, notices, err := b.one(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if len(notices) > 0 {
				report.Notices[doc.SourcePath] = notices
			}
			switch {
			case err != nil:
				var de *DocumentError
				if !errors.As(err, &de) {
					de = &DocumentError{Source: doc.SourcePath, Op: "write", Err: err}
				}
				report.Failed = append(report.Failed, de)
				b.log.Error("batch: document failed", slog.String("source", doc.SourcePath), slog.String("error", err.Error()))
			case written:
				report.Written = append(report.Written, doc.SourcePath)
			default:
				report.Skipped = append(report.Skipped, doc.SourcePath)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(report.Written)
	slices.Sort(report.Skipped)
	slices.SortFunc(report.Failed, func(x, y *DocumentError) int { return strings.Compare(x.Source, y.Source) })

	b.log.Info("batch: done",
		slog.Int("written", len(report.Written)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, ctx.Err()
}

func (b *Batch) one(ctx context.Context, doc models.Document) (bool, []models.Notice, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, &DocumentError{Source: doc.SourcePath, Op: "transcode", Err: err}
	}
	target := b.ledgerKey
	if target == "" {
		target = string(b.transcoder.Target())
	}
	if b.unchanged(doc, target) {
		b.log.Debug("batch: unchanged", slog.String("source", doc.SourcePath))
		return false, nil, nil
	}

	res, err := b.transcoder.Transcode(ctx, doc)
	if err != nil {
		return false, nil, err
	}
	out := Output{
		Source:   doc.SourcePath,
		Filename: res.Filename,
		Slug:     res.Slug,
		Text:     res.Text,
		Document: res.Document,
	}
	if err := b.sink.Write(ctx, out); err != nil {
		return false, res.Notices, &DocumentError{Source: doc.SourcePath, Op: "write", Err: err}
	}
	if b.ledger != nil && doc.Checksum != "" {
		row := ledger.DocumentRow{
			Source:   doc.SourcePath,
			Target:   target,
			Slug:     res.Slug,
			Filename: res.Filename,
			Checksum: doc.Checksum,
		}
		// An empty checksum never matches, so the next run retries the images.
		if imagesPending(res.Notices) {
			row.Checksum = ""
		}
		if err := b.ledger.UpsertDocument(row); err != nil {
			b.log.Warn("batch: ledger update failed", slog.String("source", doc.SourcePath), slog.String("error", err.Error()))
		}
	}
	return true, res.Notices, nil
}

func imagesPending(notices []models.Notice) bool {
	for _, n := range notices {
		if n.Kind == models.NoticeUploadFailed || n.Kind == models.NoticeSkipped {
			return true
		}
	}
	return false
}

func (b *Batch) unchanged(doc models.Document, target string) bool {
	if b.ledger == nil || b.force || doc.Checksum == "" {
		return false
	}
	row, err := b.ledger.GetDocument(doc.SourcePath, target)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			b.log.Warn("batch: ledger lookup failed", slog.String("source", doc.SourcePath), slog.String("error", err.Error()))
		}
		return false
	}
	return row.Checksum == doc.Checksum
}
