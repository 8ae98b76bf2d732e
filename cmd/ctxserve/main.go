// Command ctxserve runs the context ranking and extraction service:
// ingestion, type detection, weight tuning, token-budgeted extraction
// and corpus analytics over HTTP, with an optional MCP stdio surface.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/ctxserve/config"
	"github.com/hazyhaar/ctxserve/dbopen"
	"github.com/hazyhaar/ctxserve/extract"
	"github.com/hazyhaar/ctxserve/ingest"
	"github.com/hazyhaar/ctxserve/observability"
	"github.com/hazyhaar/ctxserve/server"
	"github.com/hazyhaar/ctxserve/store"
)

func main() {
	// Config: file first, then env overrides.
	cfg := config.Default()
	if path := env("CONFIG", ""); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			slog.Error("config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Server.Port = env("PORT", cfg.Server.Port)
	cfg.Server.LogLevel = env("LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Storage.Backend = env("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DBPath = env("DB_PATH", cfg.Storage.DBPath)
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage backend.
	var (
		persister store.Persister
		events    *observability.EventLogger
		db        *sql.DB
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		var err error
		db, err = dbopen.Open(cfg.Storage.DBPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("open database", "path", cfg.Storage.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		persister, err = store.NewSQLitePersister(db)
		if err != nil {
			slog.Error("sqlite persister", "error", err)
			os.Exit(1)
		}
		events, err = observability.NewEventLogger(db)
		if err != nil {
			slog.Error("event logger", "error", err)
			os.Exit(1)
		}
	case "json":
		persister = store.NewJSONPersister(cfg.Storage.JSONPath)
	case "memory":
		// No persistence; documents live only for the process lifetime.
	default:
		slog.Error("unknown storage backend", "backend", cfg.Storage.Backend)
		os.Exit(1)
	}

	// Document store.
	storeOpts := []store.Option{store.WithLogger(logger)}
	if persister != nil {
		storeOpts = append(storeOpts, store.WithPersister(persister))
	}
	st, err := store.New(ctx, storeOpts...)
	if err != nil {
		slog.Error("document store", "error", err)
		os.Exit(1)
	}
	slog.Info("store loaded", "backend", cfg.Storage.Backend, "documents", st.Len())

	// Engine components.
	pipeline := ingest.New(ingest.Config{MaxBytes: cfg.Ingest.MaxBytes, Logger: logger})
	extractor := extract.New(st, extract.WithLogger(logger))

	srvOpts := []server.Option{server.WithLogger(logger)}
	if events != nil {
		srvOpts = append(srvOpts, server.WithEventLogger(events))
	}
	svc := server.New(cfg, st, pipeline, extractor, srvOpts...)

	// Optional MCP stdio surface.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "ctxserve",
			Version: server.Version,
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Daily event-log retention sweep.
	if events != nil {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := events.Cleanup(ctx, cfg.Retention.EventDays); err != nil {
						slog.Error("event cleanup", "error", err)
					}
				}
			}
		}()
	}

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
