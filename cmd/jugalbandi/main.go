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

	"github.com/thinkoverit/jugalbandi/internal/auth"
	authpg "github.com/thinkoverit/jugalbandi/internal/auth/postgres"
	"github.com/thinkoverit/jugalbandi/internal/collection"
	"github.com/thinkoverit/jugalbandi/internal/config"
	"github.com/thinkoverit/jugalbandi/internal/events"
	"github.com/thinkoverit/jugalbandi/internal/gateway/rest"
	"github.com/thinkoverit/jugalbandi/internal/ingest"
	"github.com/thinkoverit/jugalbandi/internal/logging"
	"github.com/thinkoverit/jugalbandi/internal/metadata"
	metapg "github.com/thinkoverit/jugalbandi/internal/metadata/postgres"
	"github.com/thinkoverit/jugalbandi/internal/server"
	"github.com/thinkoverit/jugalbandi/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		slog.Error("logging initialization failed", "error", err)
		os.Exit(1)
	}
	defer logging.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startCancel()

	// Storage tiers.
	local, err := storage.New(startCtx, cfg.Storage.Local)
	if err != nil {
		return err
	}
	remote, err := storage.New(startCtx, cfg.Storage.Remote)
	if err != nil {
		return err
	}
	indexStore, err := storage.New(startCtx, cfg.Storage.Index)
	if err != nil {
		return err
	}

	// Database pools: one cache for the whole process, schema ensured per
	// pool on first use.
	pools := metadata.NewPools(func(db *sql.DB) error {
		if err := metapg.EnsureSchema(db); err != nil {
			return err
		}
		return authpg.EnsureSchema(db)
	})
	defer pools.Close()

	db, err := pools.Get(cfg.Database)
	if err != nil {
		return err
	}

	// Lifecycle events.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		jsPublisher, err := events.Connect(startCtx, cfg.Events.URL)
		if err != nil {
			return err
		}
		publisher = jsPublisher
	}
	defer publisher.Close()

	// Identity.
	authStore := authpg.NewStore(db)
	identity, err := auth.NewService(cfg.Auth, authStore, authStore)
	if err != nil {
		return err
	}

	// Orchestrator.
	collections := collection.NewRepository(local, remote)
	records := metapg.NewStore(db)
	service := ingest.NewService(collections, records,
		ingest.PlainTextConverter{},
		[]ingest.Indexer{
			ingest.NewManifestIndexer(indexStore.Sub("gpt-index")),
			ingest.NewManifestIndexer(indexStore.Sub("langchain")),
		},
		ingest.WithPublisher(publisher),
	)

	// Gateway and server.
	mux := http.NewServeMux()
	rest.NewHandler(service, identity, slog.Default()).RegisterRoutes(mux)
	srv := server.New(cfg.Server, mux, slog.Default())

	// Run until a signal arrives or the listener fails.
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(runCtx) }()

	select {
	case <-runCtx.Done():
		slog.Info("shutdown signal received")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Warn("server shutdown failed", "error", err)
	}
	for _, store := range []storage.Store{local, remote, indexStore} {
		if err := store.Shutdown(shutdownCtx); err != nil {
			slog.Warn("storage shutdown failed", "error", err)
		}
	}
	slog.Info("all services stopped")
	return nil
}
