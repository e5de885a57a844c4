package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/david/funding-gateway/internal/api"
	"github.com/david/funding-gateway/internal/catalog"
	"github.com/david/funding-gateway/internal/config"
	"github.com/david/funding-gateway/internal/db"
	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/scheduler"
	"github.com/david/funding-gateway/internal/settings"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openSettingsStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	defer closeStore()

	reg, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}
	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{})
	fetcher.BlockPrivateNetworks = cfg.BlockPrivateNetworks
	agg := ingest.NewAggregator(reg, fetcher, ingest.NewQualityFilter(cfg.QualityThreshold), cfg.Aggregator())

	cat := catalog.New(agg)
	cat.LoadTimeout = cfg.RefreshTimeout
	cron, err := scheduler.Start(cfg.RefreshSchedule, cfg.RefreshTimeout, func(ctx context.Context) error {
		_, err := cat.Refresh(ctx)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := api.NewServer(cat, store, api.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RefreshTimeout: cfg.RefreshTimeout,
	})

	go func() {
		log.Printf("Server starting on port %s...", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	<-cron.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	cat.Wait()
}

// openSettingsStore returns the configured settings backend and a function
// releasing its connections.
func openSettingsStore(ctx context.Context, cfg config.Config) (settings.Store, func(), error) {
	switch cfg.SettingsBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return settings.NewRedisStore(client), func() { client.Close() }, nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		return db.NewSettingsStore(pool), pool.Close, nil
	}
	return settings.NewMemoryStore(), func() {}, nil
}
