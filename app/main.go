package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/podcast-player/app/api"
	"github.com/lysyi3m/podcast-player/app/cfg"
	"github.com/lysyi3m/podcast-player/app/database"
	"github.com/lysyi3m/podcast-player/app/feed"
	"github.com/lysyi3m/podcast-player/app/player"
	"github.com/lysyi3m/podcast-player/app/seed"
	"github.com/lysyi3m/podcast-player/app/tasks"
	"github.com/mattn/go-isatty"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Podcast player stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting podcast player", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Debug("Database ready", "path", db.Path(), "migration_version", version, "dirty", dirty)

	store, err := player.NewStore(database.NewKVStore(db))
	if err != nil {
		return fmt.Errorf("failed to create player store: %w", err)
	}
	if err := store.Load(); err != nil {
		return err
	}

	if err := seedStore(store, appCfg); err != nil {
		return err
	}

	fetcher := feed.NewFetcher(feed.NewHTTPClient(appCfg.FetchTimeout), appCfg.UserAgent)
	parser := feed.NewParser(appCfg.MaxEpisodes, feed.NewShowNotes())
	service := feed.NewService(fetcher, parser, feed.Options{
		RequestTimeout:  appCfg.RequestTimeout,
		ValidateTimeout: appCfg.ValidateTimeout,
	})

	scheduler := tasks.NewScheduler(store, service, appCfg.RefreshInterval, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "refresh_interval", appCfg.RefreshInterval.String())

	handler := api.NewHandler(service, store, scheduler, appCfg.Version, appCfg.RequestTimeout)
	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     api.NewServer(handler, api.Options{CORS: appCfg.CORS}),
		ReadTimeout: 30 * time.Second,
		// Every feed-fetching route is bounded by RequestTimeout.
		WriteTimeout: appCfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Podcast player shutdown complete")
	return nil
}

// seedStore adds the seed podcast when nothing was restored from storage.
func seedStore(store *player.Store, appCfg *cfg.Cfg) error {
	if appCfg.NoSeed || len(store.Podcasts()) > 0 {
		return nil
	}

	p, err := seed.Load(appCfg.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed podcast: %w", err)
	}
	if err := store.AddPodcast(*p); err != nil {
		return fmt.Errorf("failed to store seed podcast: %w", err)
	}
	if err := store.OpenPodcast(p.ID); err != nil {
		return err
	}

	slog.Info("Seed podcast loaded", "podcast", p.ID, "episodes", len(p.Episodes))
	return nil
}
