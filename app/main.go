package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calcomb/calcomb/app/api"
	"github.com/calcomb/calcomb/app/calendar"
	"github.com/calcomb/calcomb/app/cfg"
	"github.com/calcomb/calcomb/app/database"
	"github.com/calcomb/calcomb/app/profile"
	"github.com/calcomb/calcomb/app/scrape"
)

func main() {
	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Cal Comb server", "version", appCfg.Version)

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	// Load extraction profiles
	profileLoader := profile.NewLoader(appCfg.ProfilesDir)
	profiles, err := profileLoader.LoadAll()
	if err != nil {
		slog.Error("Failed to load extraction profiles", "error", err)
		os.Exit(1)
	}
	slog.Info("Extraction profiles loaded", "count", len(profiles))

	// Initialize core components
	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	semantic := scrape.NewSemantic(appCfg.OpenAIKey, appCfg.OpenAIModel, appCfg.EnrichDescriptions)
	if semantic.Enabled() {
		slog.Info("Semantic fallback extraction enabled", "model", appCfg.OpenAIModel, "enrich", appCfg.EnrichDescriptions)
	} else {
		slog.Info("Semantic fallback extraction disabled (OPENAI_API_KEY not set)")
	}

	heuristic := scrape.NewHeuristic(profiles["default"])
	processor := scrape.NewProcessor(httpClient, scrape.NewFeedExtractor(), heuristic, semantic)
	batcher := calendar.NewBatcher(appCfg.WorkerCount)
	batchRepo := database.NewBatchRepository(db)

	inserters := func(ctx context.Context, accessToken string) (calendar.Inserter, error) {
		return calendar.NewClient(ctx, accessToken, appCfg.CalendarID, appCfg.EventTimezone)
	}

	// Initialize HTTP server
	handler := api.NewHandler(processor, batcher, batchRepo, inserters)
	server := api.NewServer(handler, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Cal Comb server shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}
