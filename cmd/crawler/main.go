package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/config"
	"github.com/starkmirror/starkmirror/internal/crawler"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	thru       = flag.String("thru", "", "Block hash to crawl backward from (follows the tip when empty)")
	purge      = flag.Bool("purge", false, "Re-check non-final blocks against the gateway instead of crawling")
	dry        = flag.Bool("dry", false, "With -purge, report invalidated blocks without deleting them")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadCrawlerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	err = logger.Initialize(logger.Config{Debug: cfg.Debug, Service: "crawler"})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting block crawler")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store and run migrations
	dataStore := store.NewPGStore(db)
	if err := dataStore.Migrate(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate schema", zap.Error(err))
	}

	// Initialize gateway client
	gw := gateway.NewClient(cfg.Gateway.URL, adapter.NewHTTPClient(cfg.Gateway.Timeout))

	c := crawler.NewCrawler(gw, dataStore, adapter.NewClock(), cfg.Cooldown)

	if *purge {
		if err := c.Purge(ctx, *dry); err != nil {
			logger.FatalCtx(ctx, "Purge failed", zap.Error(err))
		}
		logger.Info("Purge complete")
		return
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the crawler
	errCh := make(chan error, 1)
	go func() {
		if err := c.Run(ctx, *thru); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "crawler"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Block crawler stopped")
}
