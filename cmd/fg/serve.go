package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/config"
	"github.com/alfredjeanlab/flowgraph/internal/events"
	"github.com/alfredjeanlab/flowgraph/internal/graph"
	"github.com/alfredjeanlab/flowgraph/internal/persist"
	"github.com/alfredjeanlab/flowgraph/internal/server"
	"github.com/alfredjeanlab/flowgraph/internal/store"
	"github.com/alfredjeanlab/flowgraph/internal/store/postgres"
	"github.com/alfredjeanlab/flowgraph/internal/store/sqlite"
	flowsync "github.com/alfredjeanlab/flowgraph/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the flowgraph HTTP server",
	GroupID: "system",
	// The server does not need an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}

		// Restore the saved flow once, before any request is served.
		persister := persist.New(st, cfg.PersistenceKey, logger)
		g := graph.New()
		report := g.Load(persister.Restore(context.Background()))
		if !report.Empty() {
			logger.Warn("saved flow sanitized on restore",
				"dropped_nodes", report.DroppedNodes,
				"dropped_edges", report.DroppedEdges,
			)
		}
		stats := g.Snapshot().Stats()
		logger.Info("flow restored", "key", cfg.PersistenceKey, "nodes", stats.TotalNodes, "edges", stats.TotalEdges)

		var pubs []events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.PersistenceKey)
			if err != nil {
				st.Close()
				return err
			}
			pubs = append(pubs, pub)
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("NATS events disabled (FLOW_NATS_URL not set)")
		}
		if cfg.LogEvents {
			pubs = append(pubs, events.NewLogPublisher(logger))
		}
		publisher := events.Multi(pubs...)

		flowServer := server.NewFlowServer(g, persister, st, publisher, logger)
		flowServer.Presence().StartSweeper(nil)
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           flowServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "auth", cfg.AuthToken != "")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startSync(cfg, st, logger)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		// Close SSE streams and the presence sweeper first; Shutdown waits
		// for open handlers.
		flowServer.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore connects to Postgres when a database URL is configured and
// falls back to a local SQLite file otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.UsePostgres() {
		s, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return s, nil
	}
	s, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("using sqlite store", "path", cfg.SQLitePath)
	return s, nil
}

// startSync starts the export scheduler when an interval and at least one
// destination are configured. It returns nil otherwise.
func startSync(cfg *config.Config, st store.Store, logger *slog.Logger) *flowsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []flowsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := flowsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, flowsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := flowsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
