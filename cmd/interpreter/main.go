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
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/interpreter"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/reconciler"
	"github.com/starkmirror/starkmirror/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadInterpreterConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	err = logger.Initialize(logger.Config{Debug: cfg.Debug, Service: "interpreter"})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting transaction interpreter")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize gateway client
	gw := gateway.NewClient(cfg.Gateway.URL, adapter.NewHTTPClient(cfg.Gateway.Timeout))

	// Build the instruction set over the configured contracts
	in, err := interpreter.NewInterpreter(interpreter.Addresses{
		Ledger:           cfg.Contracts.Ledger,
		LedgerFacade:     cfg.Contracts.LedgerFacade,
		ExchangeFacade:   cfg.Contracts.ExchangeFacade,
		ComposerFacade:   cfg.Contracts.ComposerFacade,
		LoginFacadeAdmin: cfg.Contracts.LoginFacadeAdmin,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build interpreter", zap.Error(err))
	}

	flusher := reconciler.NewFlusher(gw, cfg.Contracts.LedgerFacade)
	driver := interpreter.NewDriver(dataStore, in, flusher, adapter.NewClock(), cfg.Cooldown)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the driver
	errCh := make(chan error, 1)
	go func() {
		if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "interpreter"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Transaction interpreter stopped")
}
