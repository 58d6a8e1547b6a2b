// Package config provides configuration management for the plaza daemon.
//
// This package implements the complete configuration system for plazad,
// covering the HTTP API endpoint, the Postgres and Redis backends, the batch
// scheduler tuning knobs, and operational settings like log level and log
// file. Configuration state lives in a package-level Global instance that is
// populated by the flag system and environment overrides before validation.
//
// CONFIGURATION LAYERS:
// Values are resolved in precedence order: command line flags, then
// environment variables (PLAZA_POSTGRES_DSN, PLAZA_REDIS_ADDR,
// PLAZA_REDIS_PASSWORD), then compiled defaults. Secrets like the Postgres
// DSN and the Redis password are deliberately environment-friendly so they
// stay out of process listings in production deployments.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/cache"
	configDefaults "github.com/plaza-dev/plaza/internal/config"
	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/store/postgres"
	"github.com/plaza-dev/plaza/internal/validate"
)

const (
	DefaultAPIAddr  = configDefaults.DefaultBindAddr    // Default API bind address
	DefaultAPIPort  = configDefaults.DefaultAPIPort     // Default API bind port
	DefaultLogLevel = configDefaults.DefaultLogLevel    // Default log level
	DefaultDSN      = configDefaults.DefaultPostgresDSN // Default Postgres DSN
	DefaultRedis    = configDefaults.DefaultRedisAddr   // Default Redis address
)

// Config holds all daemon configuration values
type Config struct {
	APIAddr string // HTTP API server bind address
	APIPort int    // HTTP API server bind port

	PostgresDSN      string        // Postgres connection string
	PoolSize         int32         // Postgres connection pool size
	StatementTimeout time.Duration // Per-transaction statement timeout

	RedisAddr     string // Redis address for the cache tier
	RedisPassword string // Redis password (empty for unauthenticated)
	RedisDB       int    // Redis logical database

	Batch *batch.Config // Write-behind scheduler tuning

	OpsPerWindow int           // Per-actor mutation budget per window
	OpsWindow    time.Duration // Fixed rate limit window

	LogLevel string // Log level: DEBUG, INFO, WARN, ERROR
	LogFile  string // Log file path (empty logs to stderr/stdout)
}

// Global configuration instance
var Global = Config{
	APIAddr:          DefaultAPIAddr,
	APIPort:          DefaultAPIPort,
	PostgresDSN:      DefaultDSN,
	PoolSize:         postgres.DefaultPoolSize,
	StatementTimeout: postgres.DefaultStatementTimeout,
	RedisAddr:        DefaultRedis,
	Batch:            batch.DefaultConfig(),
	OpsPerWindow:     120,
	OpsWindow:        time.Minute,
	LogLevel:         DefaultLogLevel,
}

// InitializeConfig applies environment variable overrides for values that
// were not explicitly set on the command line. Secrets in particular should
// come from the environment rather than flags.
func InitializeConfig() {
	if dsn := os.Getenv("PLAZA_POSTGRES_DSN"); dsn != "" && Global.PostgresDSN == DefaultDSN {
		Global.PostgresDSN = dsn
	}
	if addr := os.Getenv("PLAZA_REDIS_ADDR"); addr != "" && Global.RedisAddr == DefaultRedis {
		Global.RedisAddr = addr
	}
	if pw := os.Getenv("PLAZA_REDIS_PASSWORD"); pw != "" && Global.RedisPassword == "" {
		Global.RedisPassword = pw
	}
}

// ValidateConfig validates the complete daemon configuration before startup.
// Collects the per-subsystem validators so operators see configuration
// problems before any backend connection is attempted.
func ValidateConfig() error {
	if err := validate.ValidateRequiredString(Global.APIAddr, "API bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(Global.APIPort); err != nil {
		return fmt.Errorf("API port validation failed: %w", err)
	}
	if err := validate.ValidateRequiredString(Global.PostgresDSN, "Postgres DSN"); err != nil {
		return err
	}
	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	storeCfg := StoreConfig()
	if err := storeCfg.Validate(); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}
	cacheCfg := CacheConfig()
	if err := cacheCfg.Validate(); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}
	if err := Global.Batch.Validate(); err != nil {
		return fmt.Errorf("batch config validation failed: %w", err)
	}
	if Global.OpsPerWindow <= 0 {
		return fmt.Errorf("ops per window must be positive, got %d", Global.OpsPerWindow)
	}
	if Global.OpsWindow <= 0 {
		return fmt.Errorf("ops window must be positive, got %v", Global.OpsWindow)
	}

	return nil
}

// StoreConfig builds the Postgres client config from daemon configuration.
func StoreConfig() *postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.DSN = Global.PostgresDSN
	cfg.PoolSize = Global.PoolSize
	cfg.StatementTimeout = Global.StatementTimeout
	return cfg
}

// CacheConfig builds the cache client config from daemon configuration.
func CacheConfig() *cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Addr = Global.RedisAddr
	cfg.Password = Global.RedisPassword
	cfg.DB = Global.RedisDB
	return cfg
}
