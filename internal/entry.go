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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dayfinder/internal/api"
	"github.com/starford/dayfinder/internal/dailynote"
	"github.com/starford/dayfinder/internal/filecache"
	"github.com/starford/dayfinder/internal/index"
	"github.com/starford/dayfinder/internal/linescan"
	"github.com/starford/dayfinder/internal/noteservice"
	"github.com/starford/dayfinder/internal/resolver"
	"github.com/starford/dayfinder/internal/sse"
	"github.com/starford/dayfinder/internal/storage"
)

// NewLogger returns the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Components are the long-lived pieces shared by the CLI commands.
type Components struct {
	Store   *storage.FS
	Cache   *filecache.Cache
	Engine  *resolver.Engine
	DB      *index.DB
	Service *noteservice.Service
}

// Close releases the index database.
func (c *Components) Close() error {
	return c.DB.Close()
}

// Build wires storage, cache, engine, index, and service from cfg.
func Build(cfg *Config, logger *slog.Logger) (*Components, error) {
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	cache, err := filecache.New(store, store,
		filecache.WithTTL(cfg.Cache.TTL),
		filecache.WithMaxSize(cfg.Cache.MaxSize),
		filecache.WithDailyNoteExtractor(dailynote.New(cfg.Resolver.PreferEuropean)),
		filecache.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	engine := resolver.New(cache,
		resolver.WithLineScanner(linescan.New(linescan.WithWindow(cfg.Resolver.LineWindow))),
		resolver.WithMaxParentDepth(cfg.Resolver.MaxParentDepth),
		resolver.WithBatchConcurrency(cfg.Resolver.BatchConcurrency),
		resolver.WithLogger(logger),
	)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	return &Components{
		Store:   store,
		Cache:   cache,
		Engine:  engine,
		DB:      db,
		Service: noteservice.NewService(store, engine, db, logger),
	}, nil
}

// Run starts the HTTP server and vault watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("cache_ttl", cfg.Cache.TTL),
		slog.Bool("invalidate_on_change", cfg.Cache.InvalidateOnChange),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	c, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Service.Scan(ctx)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync complete",
			slog.Int("indexed", stats.Indexed),
			slog.Int("unchanged", stats.Unchanged),
			slog.Int("removed", stats.Removed),
			slog.Int("failed", stats.Failed))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	watcher := &index.Watcher{
		DB:       c.DB,
		Store:    c.Store,
		Resolver: c.Service,
		Root:     c.Store.Root(),
		Logger:   logger,
		OnEvent:  broker.FileChanged,
	}
	if cfg.Cache.InvalidateOnChange {
		watcher.Invalidate = c.Cache.Invalidate
	}

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

	r.Mount("/api", api.NewRouter(c.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := watcher.Run(gCtx); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

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
		// Stops the watcher.
		cancel()

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
