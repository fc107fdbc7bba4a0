// Package main - Entry point for the studycost server
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studycost/api"
	"studycost/cache"
	"studycost/core/catalog"
	"studycost/core/types"
	"studycost/db"
	"studycost/db/ingestion"
	"studycost/export"
	"studycost/internal/config"
	"studycost/internal/logging"
	"studycost/providers/remote"
	"studycost/providers/seed"
)

const version = "1.0.0"

func main() {
	cfgFile := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.Named("server")

	fetcher, cleanupCache := buildFetcher(cfg, log)
	refresher := catalog.NewRefresher(fetcher)

	opts := &api.Options{Consult: cfg.Consult}
	if cfg.Export.ArchiveDir != "" {
		archive, err := export.NewFileArchive(cfg.Export.ArchiveDir)
		if err != nil {
			log.Fatal("opening estimate archive", zap.Error(err))
		}
		opts.Archive = archive
	} else {
		opts.Archive = export.NewMemoryArchive()
	}
	if inval, ok := fetcher.(api.CacheInvalidator); ok {
		opts.Invalidator = inval
	}

	var store db.CatalogStore
	if cfg.Database.URL != "" {
		store, err = db.OpenPostgres(cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			log.Fatal("connecting to database", zap.Error(err))
		}
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatal("preparing schema", zap.Error(err))
		}
		opts.Store = store
	}

	if cfg.Pricing.RefreshOnStart {
		warmUp(cfg, refresher, store, fetcher, log)
	}

	server := api.NewServer(version, refresher, opts)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(cfg.Server.EnableCORS, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Address), zap.String("version", version))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	cleanupCache()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load("")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.Set(cfg)
	return cfg, nil
}

// buildFetcher assembles the provider chain: remote endpoint when
// configured, HCL seed files otherwise, with an optional cache in front.
func buildFetcher(cfg *config.Config, log *zap.Logger) (catalog.Fetcher, func()) {
	var fetcher catalog.Fetcher
	if cfg.Pricing.EndpointURL != "" {
		fetcher = remote.NewClient(&remote.Config{
			EndpointURL: cfg.Pricing.EndpointURL,
			PageSize:    cfg.Pricing.PageSize,
		})
		log.Info("using remote provider", zap.String("endpoint", cfg.Pricing.EndpointURL))
	} else {
		fetcher = seed.NewProvider(cfg.Pricing.SeedDir)
		log.Info("using seed provider", zap.String("dir", cfg.Pricing.SeedDir))
	}

	cleanup := func() {}
	if cfg.Cache.Enabled {
		redisCache := cache.NewRedisCache(cfg.Cache.RedisAddr)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Warn("redis unreachable, continuing without cache", zap.Error(err))
			return fetcher, cleanup
		}
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		fetcher = cache.NewCachedFetcher(fetcher, redisCache, ttl)
		cleanup = func() { redisCache.Close() }
		log.Info("catalog cache enabled", zap.String("redis", cfg.Cache.RedisAddr))
	}
	return fetcher, cleanup
}

// warmUp fetches every known category once so the first request is served
// from a populated snapshot. With a store present it also persists the
// fetched catalogs as snapshots.
func warmUp(cfg *config.Config, refresher *catalog.Refresher, store db.CatalogStore, fetcher catalog.Fetcher, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refresher.RefreshAll(ctx, types.WellKnownCategories()...)
	for _, category := range types.WellKnownCategories() {
		if msg, failed := refresher.LastFailure(category); failed {
			log.Warn("category degraded at startup",
				zap.String("category", category.String()),
				zap.String("reason", msg))
		}
	}

	if store != nil {
		ingestor := ingestion.NewIngestor(fetcher, store)
		if _, err := ingestor.IngestAll(ctx, true, types.WellKnownCategories()...); err != nil {
			log.Warn("snapshot ingestion incomplete", zap.Error(err))
		}
	}
}
