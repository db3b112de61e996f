package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/scribe/internal/ghost"
	"github.com/starford/scribe/internal/images"
	"github.com/starford/scribe/internal/ledger"
	"github.com/starford/scribe/internal/markup"
	"github.com/starford/scribe/internal/source"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/transcode"
	"github.com/starford/scribe/internal/uploader"
)

// ghostLedgerTarget keys ledger rows of published posts apart from html
// files written by convert.
const ghostLedgerTarget = "ghost"

// components are the parts shared by the batch commands. Optional parts are
// nil when not configured.
type components struct {
	log    *slog.Logger
	ledger *ledger.DB
	ghost  *ghost.Client
	source source.Source
	files  *source.Files
	upload images.Uploader
}

func (c *components) Close() {
	if c.ledger != nil {
		if err := c.ledger.Close(); err != nil {
			c.log.Warn("ledger: close failed", slog.String("error", err.Error()))
		}
	}
}

func (a *application) init() (*slog.Logger, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger, nil
}

func (a *application) build(logger *slog.Logger) (*components, error) {
	cfg := a.config
	c := &components{log: logger}

	logger.Info("Configuration loaded",
		slog.String("source_kind", cfg.Source.Kind),
		slog.String("source", cfg.Source.Location()),
		slog.String("target", cfg.Transcode.Target),
		slog.String("engine", cfg.Transcode.Engine),
		slog.String("upload_kind", cfg.Upload.Kind),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Ghost.URL != "" {
		c.ghost = ghost.NewClient(cfg.Ghost.URL,
			ghost.WithAdminKey(cfg.Ghost.AdminAPIKey),
			ghost.WithContentKey(cfg.Ghost.ContentAPIKey),
			ghost.WithLogger(logger),
		)
	}

	if cfg.Ledger.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
		db, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		c.ledger = db
	}

	if err := c.initSource(cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initUploader(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *components) initSource(cfg *Config) error {
	switch cfg.Source.Kind {
	case source.KindFiles:
		store, err := storage.NewFS(cfg.Source.Path)
		if err != nil {
			return fmt.Errorf("init source: %w", err)
		}
		c.files = source.NewFiles(store,
			source.WithExclude(cfg.Transcode.Exclude),
			source.WithFilesLogger(c.log),
		)
		c.source = c.files
	case source.KindGhostExport:
		c.source = source.NewGhostExport(cfg.Source.Path, c.log)
	case source.KindGhostAPI:
		if c.ghost == nil {
			return fmt.Errorf("init source: ghost.url is required for %s", cfg.Source.Kind)
		}
		c.source = source.NewGhostAPI(c.ghost, c.log)
	case source.KindFeed:
		c.source = source.NewFeed(cfg.Source.Location(), ghost.NewHTTPClient(ghost.DefaultHTTPConfig()), c.log)
	default:
		return fmt.Errorf("init source: unknown kind %q", cfg.Source.Kind)
	}
	return nil
}

func (c *components) initUploader(cfg *Config) error {
	var u images.Uploader
	switch cfg.Upload.Kind {
	case uploader.KindNone, "":
		return nil
	case uploader.KindLocal:
		if err := os.MkdirAll(cfg.Upload.Local.Path, 0o755); err != nil {
			return fmt.Errorf("create asset dir: %w", err)
		}
		store, err := storage.NewFS(cfg.Upload.Local.Path)
		if err != nil {
			return fmt.Errorf("init uploader: %w", err)
		}
		u = uploader.NewLocal(store, cfg.Upload.Local.BaseURL, c.log)
	case uploader.KindGhost:
		if c.ghost == nil {
			return fmt.Errorf("init uploader: ghost.url is required for %s", cfg.Upload.Kind)
		}
		u = uploader.NewGhost(c.ghost, c.log)
	default:
		return fmt.Errorf("init uploader: unknown kind %q", cfg.Upload.Kind)
	}
	if c.ledger != nil {
		u = uploader.NewCached(u, c.ledger, c.log)
	}
	c.upload = u
	return nil
}

func (c *components) transcoder(cfg *Config, target transcode.Target) (*transcode.Transcoder, error) {
	engine, err := markup.ParseEngine(cfg.Transcode.Engine)
	if err != nil {
		return nil, err
	}
	opts := []transcode.Option{
		transcode.WithConverter(markup.NewConverter(engine, markup.WithLogger(c.log))),
		transcode.WithDefaultTags(cfg.Transcode.DefaultTags),
		transcode.WithLogger(c.log),
	}
	if c.upload != nil {
		rwOpts := []images.Option{images.WithLogger(c.log)}
		if cfg.Upload.Kind == uploader.KindLocal {
			rwOpts = append(rwOpts, images.WithPublicPrefix(cfg.Upload.Local.BaseURL))
		}
		opts = append(opts, transcode.WithRewriter(images.NewRewriter(c.upload, rwOpts...)))
	}
	return transcode.New(target, opts...), nil
}

func (c *components) batch(cfg *Config, tr *transcode.Transcoder, sink transcode.Sink, force bool, extra ...transcode.BatchOption) *transcode.Batch {
	opts := []transcode.BatchOption{
		transcode.WithConcurrency(cfg.App.Concurrency),
		transcode.WithForce(force),
		transcode.WithBatchLogger(c.log),
	}
	if c.ledger != nil {
		opts = append(opts, transcode.WithLedger(c.ledger))
	}
	return transcode.NewBatch(tr, sink, append(opts, extra...)...)
}
