// Package main is the entry point for the modelmux routing server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelmux/modelmux/internal/analyzer"
	"github.com/modelmux/modelmux/internal/benchmark"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/observability"
	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/internal/provider/openailike"
	"github.com/modelmux/modelmux/internal/registry"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/internal/selection"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfgManager, err := config.NewManager(*configPath, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	logger := observability.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting modelmux", "strategy", cfg.Routing.Strategy, "rotation", cfg.Routing.Rotation)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Adapter registry: every configured provider goes through the
	// OpenAI-compatible adapter unless a dedicated factory is registered.
	adapters := provider.NewRegistry()
	adapters.SetDefaultFactory(openailike.New)

	reg := registry.New(logger)
	applyProviders(cfg, adapters, reg, logger)
	cfgManager.OnChange(func(next *config.Config) {
		applyProviders(next, adapters, reg, logger)
	})
	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	// Benchmark refresh loop. The registry is wrapped so credentials from
	// config are re-applied after each sync, covering providers that first
	// appear in fresh benchmark data.
	source := benchmark.NewClient(benchmark.ClientConfig{
		BaseURL: cfg.Benchmark.BaseURL,
		APIKey:  cfg.Benchmark.APIKey,
	})
	sink := &credentialedSink{Registry: reg, creds: cfgManager.Get}
	refresher := benchmark.NewRefresher(source, sink, benchmark.RefresherConfig{
		Interval:     cfg.Benchmark.RefreshInterval,
		MaxDataAge:   cfg.Benchmark.MaxDataAge,
		StaleCleanup: cfg.Benchmark.StaleCleanup,
	}, logger)
	go refresher.Run(ctx)

	// The delegation model serves both request classification and
	// balanced ranking. Without one, both fall back to local heuristics.
	var delegate provider.Completer
	if cfg.Analyzer.Provider != "" {
		if ad, ok := adapters.Get(cfg.Analyzer.Provider); ok {
			delegate = provider.AdapterCompleter{Adapter: ad, Model: cfg.Analyzer.Model}
		} else {
			logger.Warn("analyzer provider not configured, delegation disabled",
				"provider", cfg.Analyzer.Provider)
		}
	}

	an := analyzer.New(delegate, cfg.Analyzer.CacheTTL, logger)

	strategy, err := selection.ParseStrategy(cfg.Routing.Strategy)
	if err != nil {
		logger.Error("invalid routing strategy", "error", err)
		os.Exit(1)
	}
	engine := selection.NewEngine(strategy, cfg.Routing.Rotation, delegate, logger)
	brk := breaker.New(reg, breaker.Config{}, logger)

	rt := router.New(reg, an, engine, brk, adapters, router.Config{
		Rotation: cfg.Routing.Rotation,
	}, logger)

	handler := newHandler(rt, reg, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      observability.RequestIDMiddleware(buildMux(cfg, handler)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
	cfgManager.Close()
	logger.Info("server stopped")
}
