package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/scribe/internal/api"
	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/markup"
	"github.com/starford/scribe/internal/mcpserver"
	"github.com/starford/scribe/internal/transcode"
	"github.com/starford/scribe/internal/uploader"
)

func newDocService(cfg *Config, logger *slog.Logger) (*docservice.Service, error) {
	target, err := transcode.ParseTarget(cfg.Transcode.Target)
	if err != nil {
		return nil, err
	}
	engine, err := markup.ParseEngine(cfg.Transcode.Engine)
	if err != nil {
		return nil, err
	}
	return docservice.New(
		docservice.WithDefaults(target, engine),
		docservice.WithDefaultTags(cfg.Transcode.DefaultTags),
		docservice.WithLogger(logger),
	), nil
}

// NewHandler builds the HTTP handler served by Serve.
func NewHandler(cfg *Config, svc *docservice.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	// Assets written by the local uploader, when their base URL is a path
	// on this server.
	if cfg.Upload.Kind == uploader.KindLocal && strings.HasPrefix(cfg.Upload.Local.BaseURL, "/") {
		assets := api.NewAssetHandler(cfg.Upload.Local.Path)
		r.Get(strings.TrimRight(cfg.Upload.Local.BaseURL, "/")+"/{filename}", assets.ServeFile)
	}

	return r
}

// Serve runs the HTTP API until ctx is cancelled or a shutdown signal
// arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	logger, err := app.init()
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("target", cfg.Transcode.Target),
		slog.String("engine", cfg.Transcode.Engine),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := newDocService(cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout. Logs go to stderr unless
// WithLogOutput says otherwise, since stdout carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	logger, err := app.init()
	if err != nil {
		return err
	}

	svc, err := newDocService(app.config, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting MCP server", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}
