package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/config"
	"github.com/alfredjeanlab/laptimer/internal/correlator"
	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/ingest"
	"github.com/alfredjeanlab/laptimer/internal/server"
	"github.com/alfredjeanlab/laptimer/internal/store"
	"github.com/alfredjeanlab/laptimer/internal/store/postgres"
	"github.com/alfredjeanlab/laptimer/internal/store/sqlite"
	lapsync "github.com/alfredjeanlab/laptimer/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the laptimer server",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := newLogger(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		if cfg.UseSQLite() {
			logger.Info("store opened", "backend", "sqlite", "laps_db", cfg.LapsDB, "tags_db", cfg.TagsDB)
		} else {
			logger.Info("store opened", "backend", "postgres")
		}

		publisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			st.Close()
			return err
		}
		subscriber, err := events.NewNATSSubscriber(cfg.NATSURL, logger)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}
		logger.Info("connected to NATS", "url", cfg.NATSURL)

		// Wire the pipeline: bus -> dispatcher -> tracker/correlator -> store,
		// with each stored lap fanned out to NATS and SSE clients.
		tracker := gates.New(logger)
		lapServer := server.NewLapServer(st, tracker, publisher, logger)
		corr := correlator.New(st, logger, correlator.WithNotifier(lapServer.LapRecorded))
		subjects := subjectsFromConfig(cfg)
		dispatcher := ingest.NewDispatcher(subjects, tracker, corr, logger)

		ingestCtx, ingestCancel := context.WithCancel(context.Background())
		ingestDone := make(chan struct{})
		go func() {
			defer close(ingestDone)
			if err := dispatcher.Run(ingestCtx, subscriber); err != nil {
				logger.Error("bus dispatcher error", "err", err)
			}
		}()
		logger.Info("listening for gate messages", "subjects", strings.Join(subjects.List(), ","))

		httpServer := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: lapServer.NewHTTPHandler(server.Credentials{
				Username: cfg.WebUsername,
				Password: cfg.WebPassword,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "auth", cfg.AuthEnabled())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start sync scheduler if any destinations are configured.
		var scheduler *lapsync.Scheduler
		if cfg.SyncInterval > 0 {
			if dests := syncDestinations(cmd.Context(), cfg, logger); len(dests) > 0 {
				scheduler = lapsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("laptimer server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Stop ingest first so no lap is written after the final sync.
		ingestCancel()
		<-ingestDone
		if err := subscriber.Close(); err != nil {
			logger.Error("error closing subscriber", "err", err)
		}
		logger.Info("bus dispatcher stopped")

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

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

// newLogger builds the text logger used by serve at the given level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("LAPTIMER_LOG_LEVEL: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openStore opens the postgres store when a database URL is configured and
// the two-file sqlite store otherwise.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.UseSQLite() {
		s, err := sqlite.Open(cfg.LapsDB, cfg.TagsDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func subjectsFromConfig(cfg *config.Config) ingest.Subjects {
	return ingest.Subjects{
		StartStatus: cfg.SubjectStartStatus,
		StopStatus:  cfg.SubjectStopStatus,
		Tag:         cfg.SubjectTag,
		StartPulse:  cfg.SubjectStart,
		StopPulse:   cfg.SubjectStop,
	}
}

// syncDestinations builds the configured export targets. A destination that
// cannot be created is logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []lapsync.Destination {
	var dests []lapsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := lapsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, lapsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	return dests
}
