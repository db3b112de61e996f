package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/ledger"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/source"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/transcode"
)

// OutputLedger records which output file each source produced.
type OutputLedger interface {
	GetDocument(source, target string) (*ledger.DocumentRow, error)
	DeleteDocument(source, target string) error
}

// Pipeline is the Handler used by the convert command: it reloads a source
// file, runs it through the batch and keeps the output tree in step.
type Pipeline struct {
	files  *source.Files
	batch  *transcode.Batch
	target transcode.Target
	out    storage.Provider
	ledger OutputLedger
	log    *slog.Logger
}

var _ Handler = (*Pipeline)(nil)

// NewPipeline builds a Pipeline. led may be nil, in which case outputs of
// deleted or retitled sources are left in place.
func NewPipeline(files *source.Files, batch *transcode.Batch, target transcode.Target, out storage.Provider, led OutputLedger, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{files: files, batch: batch, target: target, out: out, ledger: led, log: log}
}

// Accepts delegates to the file source.
func (p *Pipeline) Accepts(rel string) bool { return p.files.Accepts(rel) }

// Process converts rel again. When the new output name differs from the
// previous one the stale file is removed.
func (p *Pipeline) Process(ctx context.Context, rel string) error {
	doc, err := p.files.Load(rel)
	if err != nil {
		return err
	}
	prev := p.lookup(rel)

	report, err := p.batch.Run(ctx, []models.Document{doc})
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return report.Failed[0]
	}

	if prev != nil {
		if cur := p.lookup(rel); cur != nil && cur.Filename != prev.Filename {
			p.deleteOutput(prev.Filename)
		}
	}
	return nil
}

// Remove deletes the output written for rel and forgets it.
func (p *Pipeline) Remove(_ context.Context, rel string) error {
	if p.ledger == nil {
		p.log.Warn("watcher: no ledger, output kept", slog.String("path", rel))
		return nil
	}
	row := p.lookup(rel)
	if row == nil {
		return nil
	}
	p.deleteOutput(row.Filename)
	return p.ledger.DeleteDocument(rel, string(p.target))
}

func (p *Pipeline) lookup(rel string) *ledger.DocumentRow {
	if p.ledger == nil {
		return nil
	}
	row, err := p.ledger.GetDocument(rel, string(p.target))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			p.log.Warn("watcher: ledger lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return nil
	}
	return row
}

func (p *Pipeline) deleteOutput(name string) {
	if err := p.out.Delete(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.log.Warn("watcher: delete output failed", slog.String("path", name), slog.String("error", err.Error()))
		return
	}
	p.log.Info("watcher: output removed", slog.String("path", name))
}
