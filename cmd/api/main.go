package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wfmarket-sync/internal/cache"
	"wfmarket-sync/internal/config"
	"wfmarket-sync/internal/handler"
	"wfmarket-sync/internal/repository"
	"wfmarket-sync/internal/router"
	"wfmarket-sync/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting wfmarket query API...")

	if err := run(); err != nil {
		log.Printf("Server failed: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Printf("Environment: %s", cfg.App.Environment)

	store, err := repository.Open(repository.Options{
		Type:        cfg.Store.Type,
		SQLitePath:  cfg.Sync.DatabasePath,
		PostgresDSN: cfg.Store.PostgresDSN(),
		MySQLDSN:    cfg.Store.MySQLDSN(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", cfg.Store.Type, err)
	}
	defer store.Close()

	// Tables may not exist yet if no sync has run against this store
	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	log.Printf("%s market store initialized", cfg.Store.Type)

	reports, err := cache.Open(cache.Options{
		Type: cfg.Cache.Type,
		Redis: cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.RedisPrefix,
		},
	})
	if err != nil {
		log.Printf("Warning: report cache unavailable, sync reports will not be served: %v", err)
		reports = nil
	} else {
		defer reports.Close()
	}

	// Initialize services
	marketService := service.NewMarketService(store, reports)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Name, cfg.App.Version, store)
	marketHandler := handler.NewMarketHandler(marketService)
	statsHandler := handler.NewStatsHandler(marketService)

	r := router.New(router.Config{
		Handler:       healthHandler,
		MarketHandler: marketHandler,
		StatsHandler:  statsHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
