package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/plexarr/plexarr/internal/api"
	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/controllers"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/scheduler"
	"github.com/plexarr/plexarr/internal/services/imdb"
	"github.com/plexarr/plexarr/internal/services/plex"
	"github.com/plexarr/plexarr/internal/services/tmdb"
	"github.com/plexarr/plexarr/internal/services/trakt"
	"github.com/plexarr/plexarr/internal/sources"
	"github.com/plexarr/plexarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Plexarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize services
	tmdbClient, err := tmdb.NewClient(cfg.TMDBAPIKey, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	logger.Info("TMDB client initialized")

	plexClient, err := plex.NewClient(cfg.PlexToken, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Plex client: %w", err)
	}
	logger.Info("Plex client initialized")

	imdbClient := imdb.NewClient(logger)

	traktClient, err := trakt.NewClient(cfg.TraktClientID, cfg.TraktClientSecret, db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Trakt client: %w", err)
	}

	// Trakt needs an interactive device-code grant; only demand one when the
	// configured source actually uses it
	if cfg.Snapshot().SourceType == models.SourceTrakt && !traktClient.HasValidToken() {
		logger.Info("Trakt authentication required")
		if err := traktClient.Authenticate(context.Background()); err != nil {
			return fmt.Errorf("failed to authenticate with Trakt: %w", err)
		}
	}

	// 5. Initialize source adapters
	registry := sources.NewRegistry(
		sources.NewIMDBAdapter(imdbClient),
		sources.NewTMDBListAdapter(tmdbClient),
		sources.NewTMDBWatchlistAdapter(tmdbClient, db),
		sources.NewTraktAdapter(traktClient),
	)

	// 6. Initialize controllers
	availabilityCtrl := controllers.NewAvailabilityController(tmdbClient, logger)
	reconciler := controllers.NewReconciler(logger)
	syncCtrl := controllers.NewSyncController(registry, availabilityCtrl, reconciler, plexClient, db, logger)
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(cfg, syncCtrl, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, sched, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Plexarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Plexarr stopped")
	return nil
}
