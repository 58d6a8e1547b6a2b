// Package daemon provides the plaza daemon orchestration and lifecycle
// management.
//
// This package implements the initialization and coordination logic for the
// write-behind world-state core. It manages the startup, integration, and
// graceful shutdown of the daemon's services: the Postgres durable store,
// the Redis cache tier, the batch scheduler, and the HTTP API.
//
// SERVICE INTEGRATION FLOW:
// 1. Durable store connection and idempotent schema application
// 2. Cache tier connection (degraded start tolerated; the cache fails open)
// 3. Coordinator construction and scheduler startup
// 4. HTTP API server startup in front of the coordinator
// 5. Graceful shutdown in reverse order, draining every batch queue before
//    the store connection closes so no accepted operation is lost
//
// The store is the only hard startup dependency: without Postgres the daemon
// cannot honor its durability contract. Redis being down merely degrades
// read latency and live fan-out.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plaza-dev/plaza/cmd/plazad/config"
	"github.com/plaza-dev/plaza/internal/api"
	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/coordinator"
	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/store/postgres"
	"github.com/plaza-dev/plaza/internal/version"
)

// startupTimeout bounds backend connection and schema application.
const startupTimeout = 30 * time.Second

// shutdownTimeout bounds the graceful drain of the API and the scheduler.
const shutdownTimeout = 30 * time.Second

// buildAPIConfig converts daemon config to API server config
func buildAPIConfig(coord *coordinator.Coordinator) *api.Config {
	apiConfig := api.DefaultConfig()

	apiConfig.BindAddr = config.Global.APIAddr
	apiConfig.BindPort = config.Global.APIPort
	apiConfig.OpsPerWindow = config.Global.OpsPerWindow
	apiConfig.OpsWindow = config.Global.OpsWindow
	apiConfig.Coordinator = coord

	return apiConfig
}

// Run starts the daemon and blocks until a shutdown signal arrives.
func Run() error {
	logging.Info("Starting plaza daemon v%s", version.PlazadVersion)
	logging.Info("API: %s:%d, Postgres pool: %d, Redis: %s",
		config.Global.APIAddr, config.Global.APIPort, config.Global.PoolSize, config.Global.RedisAddr)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	// Durable store first: it is the only hard dependency.
	store, err := postgres.New(startupCtx, config.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := store.EnsureSchema(startupCtx); err != nil {
		store.Close()
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logging.Success("Durable store ready")

	// Cache tier: a failed connection starts the daemon degraded.
	cacheClient := cache.New(config.CacheConfig())

	// Coordinator owns the batch scheduler.
	coord, err := coordinator.New(config.Global.Batch, store, cacheClient)
	if err != nil {
		cacheClient.Close()
		store.Close()
		return fmt.Errorf("failed to build coordinator: %w", err)
	}
	coord.Start()

	// HTTP API in front of the coordinator.
	apiConfig := buildAPIConfig(coord)
	if err := apiConfig.Validate(); err != nil {
		coord.Shutdown(context.Background())
		cacheClient.Close()
		store.Close()
		return fmt.Errorf("invalid API config: %w", err)
	}
	apiServer := api.NewServer(apiConfig)
	if err := apiServer.Start(); err != nil {
		coord.Shutdown(context.Background())
		cacheClient.Close()
		store.Close()
		return fmt.Errorf("failed to start API server: %w", err)
	}

	logging.Success("Plaza daemon started successfully")
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Received signal: %v", sig)

	// Graceful shutdown in reverse dependency order: stop admitting HTTP
	// traffic, drain every batch queue to the store, then close backends.
	logging.Info("Initiating graceful shutdown...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down API server: %v", err)
	}
	coord.Shutdown(shutdownCtx)
	if err := cacheClient.Close(); err != nil {
		logging.Error("Error closing cache client: %v", err)
	}
	store.Close()

	logging.Success("Plaza daemon shutdown completed")
	return nil
}
