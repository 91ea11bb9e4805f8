// Package main initializes and starts the cryptofolio server: configuration,
// logging, database, repositories, services, the background price scheduler
// and the HTTP router.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/avolkov/cryptofolio/internal/config"
	"github.com/avolkov/cryptofolio/internal/db"
	"github.com/avolkov/cryptofolio/internal/logger"
	"github.com/avolkov/cryptofolio/internal/repository"
	"github.com/avolkov/cryptofolio/internal/scheduler"
	"github.com/avolkov/cryptofolio/internal/server/handler/http"
	"github.com/avolkov/cryptofolio/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Root context cancelled on SIGINT/SIGTERM; everything background
	// hangs off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	assetRepo := repository.NewPostgresAssetRepository(postgresDB)
	portfolioRepo := repository.NewPostgresPortfolioRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, options.TokenRetention)
	registryService := service.NewRegistryService(assetRepo, options.PriceSecret)
	ledgerService := service.NewLedgerService(portfolioRepo, registryService)

	// Sweep expired session tokens in the background.
	db.StartTokenSweeper(ctx, authService, options.SweepInterval, zapLogger)

	// Start the price scheduler: discovers assets and walks their prices.
	priceScheduler := scheduler.New(
		registryService,
		options.PriceSecret,
		options.DiscoveryInterval,
		options.UpdateInterval,
		zapLogger,
	)
	priceScheduler.Start(ctx)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, CookieTTL: options.TokenRetention}
	portfolioHandler := &http.PortfolioHandler{LedgerService: ledgerService}
	assetHandler := &http.AssetHandler{RegistryService: registryService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, portfolioHandler, assetHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown", zap.Error(err))
	}

	// Scheduler loops exit at their next tick after ctx is cancelled.
	priceScheduler.Wait()
	zapLogger.Info("stopped")
}
