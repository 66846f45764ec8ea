package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wfmarket-sync/internal/cache"
	"wfmarket-sync/internal/config"
	"wfmarket-sync/internal/marketapi"
	"wfmarket-sync/internal/pacing"
	"wfmarket-sync/internal/repository"
	"wfmarket-sync/internal/service"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	var cfgErr *configError
	switch {
	case err == nil:
		log.Println("Done")
		return exitOK
	case errors.As(err, &cfgErr):
		log.Printf("Configuration error: %v", err)
		return exitConfig
	default:
		log.Printf("Sync failed: %v", err)
		return exitFailed
	}
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.StringVar(&cfg.Sync.DatabasePath, "db", cfg.Sync.DatabasePath, "SQLite database path")
	fs.IntVar(&cfg.Sync.Limit, "limit", cfg.Sync.Limit, "sync order books for the first N items only (0 = all)")
	fs.Float64Var(&cfg.Sync.PauseSeconds, "pause", cfg.Sync.PauseSeconds, "minimum seconds between API requests")
	fs.StringVar(&cfg.Sync.APIBase, "api-base", cfg.Sync.APIBase, "nominal marketplace API base URL")
	fs.StringVar(&cfg.Sync.FailurePolicy, "failure-policy", cfg.Sync.FailurePolicy, "per-item failure policy: abort or continue")
	fs.BoolVar(&cfg.Sync.AllowEmptyCatalog, "allow-empty-catalog", cfg.Sync.AllowEmptyCatalog, "treat an empty catalog as a successful no-op")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return &configError{err}
	}

	store, err := repository.Open(repository.Options{
		Type:        cfg.Store.Type,
		SQLitePath:  cfg.Sync.DatabasePath,
		PostgresDSN: cfg.Store.PostgresDSN(),
		MySQLDSN:    cfg.Store.MySQLDSN(),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Type, err)
	}
	defer store.Close()

	// A memory cache only outlives the run inside this process; use redis to
	// serve reports from the query API.
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
		log.Printf("Warning: report cache unavailable, report will only be logged: %v", err)
		reports = nil
	} else {
		defer reports.Close()
	}

	client := marketapi.NewClient(
		marketapi.WithTimeout(cfg.HTTP.Timeout),
		marketapi.WithHeaders(cfg.HTTP.Language, cfg.HTTP.Platform, cfg.HTTP.UserAgent),
		marketapi.WithRetryPolicy(marketapi.RetryPolicy{
			MaxAttempts: cfg.HTTP.MaxAttempts,
			BackoffMin:  cfg.HTTP.BackoffMin,
			BackoffMax:  cfg.HTTP.BackoffMax,
		}),
		marketapi.WithGate(pacing.NewGate(cfg.Sync.Pause())),
	)

	svc := service.NewSyncService(client, store, reports, service.SyncOptions{
		NominalBase:       cfg.Sync.APIBase,
		Limit:             cfg.Sync.Limit,
		FailurePolicy:     cfg.Sync.FailurePolicy,
		AllowEmptyCatalog: cfg.Sync.AllowEmptyCatalog,
		ReportTTL:         cfg.Cache.ReportTTL,
	})

	_, err = svc.Run(ctx)
	return err
}
