// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/scribe/internal/ghost"
	"github.com/starford/scribe/internal/source"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/transcode"
	"github.com/starford/scribe/internal/watch"
)

// ErrDocumentsFailed is returned after a batch in which at least one
// document could not be converted. The other documents were still written.
var ErrDocumentsFailed = errors.New("documents failed")

// Convert reads every document from the configured source and writes the
// converted files into the output directory. With WithWatch it then keeps
// the output in step with the input directory until ctx is cancelled or a
// shutdown signal arrives.
func Convert(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	logger, err := app.init()
	if err != nil {
		return err
	}
	cfg := app.config

	if app.watch && cfg.Source.Kind != source.KindFiles {
		return fmt.Errorf("watch needs source kind %q, got %q", source.KindFiles, cfg.Source.Kind)
	}

	target, err := transcode.ParseTarget(cfg.Transcode.Target)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Path, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := storage.NewFS(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	c, err := app.build(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	tr, err := c.transcoder(cfg, target)
	if err != nil {
		return err
	}
	batch := c.batch(cfg, tr, storage.NewSink(out), app.force)

	failed, err := runBatch(ctx, c, batch)
	if err != nil {
		return err
	}

	if !app.watch {
		if failed > 0 {
			return fmt.Errorf("%w: %d", ErrDocumentsFailed, failed)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var led watch.OutputLedger
	if c.ledger != nil {
		led = c.ledger
	}
	pipeline := watch.NewPipeline(c.files, batch, target, out, led, logger)
	root := c.files.Root()
	logger.Info("Watching for changes", slog.String("path", root))
	err = watch.Watch(ctx, root, pipeline, logger, func(kind, path string) {
		logger.Info("watcher: "+kind, slog.String("path", path))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}
	logger.Info("Watcher stopped")
	return nil
}

// Publish reads every document from the configured source, converts it to
// HTML and creates one Ghost post per document.
func Publish(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	logger, err := app.init()
	if err != nil {
		return err
	}
	cfg := app.config
	if err := cfg.GhostPublishing(); err != nil {
		return err
	}

	c, err := app.build(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	tr, err := c.transcoder(cfg, transcode.TargetHTML)
	if err != nil {
		return err
	}
	publisher := ghost.NewPublisher(c.ghost, cfg.Ghost.PostStatus)
	batch := c.batch(cfg, tr, publisher, app.force, transcode.WithLedgerTarget(ghostLedgerTarget))

	failed, err := runBatch(ctx, c, batch)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrDocumentsFailed, failed)
	}
	return nil
}

func runBatch(ctx context.Context, c *components, batch *transcode.Batch) (int, error) {
	docs, err := c.source.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	c.log.Info("Documents loaded", slog.Int("count", len(docs)))

	report, err := batch.Run(ctx, docs)
	if report != nil {
		logReport(c.log, report)
	}
	if err != nil {
		return 0, err
	}
	return len(report.Failed), nil
}

func logReport(logger *slog.Logger, report *transcode.Report) {
	for src, notices := range report.Notices {
		for _, n := range notices {
			logger.Warn("notice",
				slog.String("source", src),
				slog.String("kind", string(n.Kind)),
				slog.String("subject", n.Subject),
				slog.String("message", n.Message))
		}
	}
	for _, f := range report.Failed {
		logger.Error("failed",
			slog.String("source", f.Source),
			slog.String("op", f.Op),
			slog.String("error", f.Err.Error()))
	}
}
