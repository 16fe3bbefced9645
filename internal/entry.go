// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notesd/internal/api"
	"github.com/starford/notesd/internal/export"
	"github.com/starford/notesd/internal/inbox"
	"github.com/starford/notesd/internal/mcpserver"
	"github.com/starford/notesd/internal/metrics"
	"github.com/starford/notesd/internal/notes"
	"github.com/starford/notesd/internal/sse"
	"github.com/starford/notesd/internal/storage"
	"github.com/starford/notesd/internal/store"
)

var errConfigRequired = errors.New("config is required")

// newLogger builds the process logger: JSON by default, tint when
// log_pretty is set.
func newLogger(w io.Writer, cfg ApplicationConfig) *slog.Logger {
	if cfg.LogPretty {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// openService opens the database and builds the note facade over it. The
// caller closes the returned DB.
func openService(ctx context.Context, cfg *Config, logger *slog.Logger, m *metrics.Metrics) (*store.DB, *notes.Service, error) {
	if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := store.Open(ctx, cfg.SQLite.Path, store.OpenOptions{
		RetryAttempts: cfg.SQLite.OpenAttempts,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	svc := notes.NewService(db, notes.Options{
		MaxNotes:        cfg.Notes.MaxNotes,
		DefaultPageSize: cfg.Notes.DefaultPageSize,
		Logger:          logger,
		Metrics:         m,
	})

	if cfg.SQLite.RebuildIndex {
		if _, err := svc.RebuildIndex(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("rebuild index: %w", err)
		}
	}
	return db, svc, nil
}

// Run starts the HTTP server and, when enabled, the inbox importer.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("max_notes", cfg.Notes.MaxNotes),
		slog.Bool("inbox", cfg.Inbox.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	db, svc, err := openService(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := svc.Count(ctx)
	if err != nil {
		return fmt.Errorf("count notes: %w", err)
	}
	m.SetNotesStored(count)
	logger.Info("Store opened", slog.Int("notes", count), slog.Int("capacity", svc.MaxNotes()))

	// SSE broker, fed by committed changes.
	broker := sse.NewBroker(sse.Options{
		Heartbeat: 30 * time.Second,
		Logger:    logger,
		Metrics:   m,
	})
	defer broker.Close()
	unsubscribe := svc.Subscribe(broker.Notify)
	defer unsubscribe()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Count(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Mount("/api", api.NewRouter(svc, api.RouterOptions{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Metrics:     m,
	}))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Inbox.Enabled {
		importer, err := inbox.New(cfg.Inbox.Path, svc, inbox.Options{
			Settle:  cfg.Inbox.Settle,
			Logger:  logger,
			Metrics: m,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return importer.Run(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
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

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App)
	slog.SetDefault(logger)

	db, svc, err := openService(ctx, app.config, logger, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// Reindex recomputes every search entry and exits.
func Reindex(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, app.config.App)

	cfg := *app.config
	cfg.SQLite.RebuildIndex = false
	db, svc, err := openService(ctx, &cfg, logger, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := svc.RebuildIndex(ctx)
	if err != nil {
		return err
	}
	logger.Info("Reindex finished", slog.Int("notes", n))
	return nil
}

// Export writes every note as Markdown into dir.
func Export(ctx context.Context, dir string, prune bool, opts ...Option) (export.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return export.Result{}, err
	}
	logger := newLogger(os.Stdout, app.config.App)

	out, err := storage.NewDir(dir)
	if err != nil {
		return export.Result{}, err
	}
	db, svc, err := openService(ctx, app.config, logger, nil)
	if err != nil {
		return export.Result{}, err
	}
	defer db.Close()

	return export.Export(ctx, svc, out, export.Options{Prune: prune, Logger: logger})
}
