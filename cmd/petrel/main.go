// Petrel - Multi-hazard point risk analytics for offshore operations.
// Copyright (c) 2025 opensource.climate
// Licensed under the Apache License 2.0

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

	"github.com/opensource-climate/petrel/internal/api"
	"github.com/opensource-climate/petrel/internal/bus"
	"github.com/opensource-climate/petrel/internal/cache"
	"github.com/opensource-climate/petrel/internal/curves"
	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/engine"
	"github.com/opensource-climate/petrel/internal/insights"
	"github.com/opensource-climate/petrel/internal/repository"
	"github.com/opensource-climate/petrel/internal/series"
	"github.com/opensource-climate/petrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("PETREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting petrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()
	if os.Getenv("PETREL_PROFILE") == "cluster" {
		cfg = domain.ClusterConfig()
		slog.Info("running in cluster profile")
	}
	if url := os.Getenv("PETREL_VULN_URL"); url != "" {
		cfg.Vulnerability.Mode = "remote"
		cfg.Vulnerability.RemoteURL = url
	}
	if path := os.Getenv("PETREL_SQLITE_PATH"); path != "" {
		cfg.Repository.SQLitePath = path
	}

	slog.Info("configuration loaded",
		"profile", cfg.Profile,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"vulnerability", cfg.Vulnerability.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize damage model: the table catalog always exists; the remote
	// engine is probed once and falls back to the table on failure.
	tableModel, err := curves.NewTableModel()
	if err != nil {
		slog.Error("failed to build vulnerability catalog", "error", err)
		os.Exit(1)
	}
	var damage domain.DamageModel = tableModel
	if cfg.Vulnerability.Mode == "remote" {
		remote := curves.NewRemoteModel(cfg.Vulnerability.RemoteURL, tableModel)
		if remote.Available() {
			damage = remote
		} else {
			slog.Warn("remote vulnerability engine unreachable, using table model",
				"url", cfg.Vulnerability.RemoteURL,
			)
		}
	}
	slog.Info("damage model initialized", "model", damage.Name())

	// Initialize series provider: SQL sample store with an optional
	// read-through cache decorator.
	var provider domain.SeriesProvider = series.NewStore(repo)
	if cfg.SeriesCacheTTL > 0 {
		ttl := time.Duration(cfg.SeriesCacheTTL) * time.Second
		provider = series.NewCachedProvider(provider, cacheImpl, ttl)
		slog.Info("series cache enabled", "ttl_seconds", cfg.SeriesCacheTTL)
	}

	// Initialize insight engine
	insightEngine, err := insights.NewEngine()
	if err != nil {
		slog.Error("failed to initialize insight engine", "error", err)
		os.Exit(1)
	}
	if err := loadInsightRules(ctx, repo, insightEngine); err != nil {
		slog.Error("failed to load insight rules", "error", err)
		os.Exit(1)
	}
	slog.Info("insight engine initialized", "rules_count", insightEngine.RulesCount())

	// Initialize Analyzer
	analyzer := engine.New(provider, damage, insightEngine)

	// Initialize async Worker
	asyncWorker := worker.NewWorker(busImpl, repo, analyzer)
	if err := asyncWorker.Start(); err != nil {
		slog.Error("failed to start async worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, provider, analyzer, damage, insightEngine, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("petrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if err := asyncWorker.Stop(); err != nil {
		slog.Error("failed to stop async worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("petrel shutdown complete")
}

// loadInsightRules loads persisted rules into the engine. A fresh
// database is seeded with the built-in defaults so the first analysis
// already produces insights.
func loadInsightRules(ctx context.Context, repo domain.Repository, insightEngine *insights.Engine) error {
	dbRules, err := repo.ListInsightRules(ctx)
	if err != nil {
		slog.Warn("failed to list insight rules from database", "error", err)
		return insightEngine.LoadRules(insights.BuiltinRules())
	}

	if len(dbRules) > 0 {
		slog.Info("loading insight rules from database", "count", len(dbRules))
		return insightEngine.LoadRules(dbRules)
	}

	slog.Info("seeding built-in insight rules")
	builtin := insights.BuiltinRules()
	for _, rule := range builtin {
		if err := repo.SaveInsightRule(ctx, rule); err != nil {
			slog.Warn("failed to persist built-in rule", "id", rule.ID, "error", err)
		}
	}
	return insightEngine.LoadRules(builtin)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |                 PETREL                    |")
	fmt.Println("  |   Multi-Hazard Point Risk Analytics       |")
	fmt.Println("  |    Weather risk, priced by the hour.      |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Profile:  %s\n", cfg.Profile)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /api/v1/analysis/multi-risk   - Multi-hazard analysis")
	fmt.Println("    POST /api/v1/analysis/wind-risk    - Single-hazard wind analysis")
	fmt.Println("    POST /api/v1/analysis/run          - Queue async analysis")
	fmt.Println("    GET  /api/v1/analysis/{id}/status  - Async analysis status")
	fmt.Println("    GET  /api/v1/analysis/{id}/results - Async analysis results")
	fmt.Println("    GET  /api/v1/hazards               - Hazard catalog")
	fmt.Println("    GET  /api/v1/hazards/asset-types   - Asset type registry")
	fmt.Println("    GET  /api/v1/data/timeseries       - Raw point series")
	fmt.Println("    GET  /api/v1/assets                - Pre-aggregated asset results")
	fmt.Println("    GET  /api/v1/insight-rules         - Insight rule management")
	fmt.Println("    GET  /health                       - Health check")
	fmt.Println()
}
