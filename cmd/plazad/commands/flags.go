package commands

import (
	"github.com/spf13/cobra"

	"github.com/plaza-dev/plaza/cmd/plazad/config"
)

// SetupFlags configures all command line flags for the daemon
func SetupFlags(cmd *cobra.Command) {
	// Network flags
	cmd.Flags().StringVar(&config.Global.APIAddr, "api", config.DefaultAPIAddr,
		"HTTP API bind address (e.g., 0.0.0.0)")
	cmd.Flags().IntVar(&config.Global.APIPort, "api-port", config.DefaultAPIPort,
		"HTTP API bind port")

	// Backend flags
	cmd.Flags().StringVar(&config.Global.PostgresDSN, "postgres-dsn", config.DefaultDSN,
		"Postgres connection string (or PLAZA_POSTGRES_DSN)")
	cmd.Flags().Int32Var(&config.Global.PoolSize, "postgres-pool", config.Global.PoolSize,
		"Postgres connection pool size")
	cmd.Flags().StringVar(&config.Global.RedisAddr, "redis", config.DefaultRedis,
		"Redis address for the cache tier (or PLAZA_REDIS_ADDR)")
	cmd.Flags().IntVar(&config.Global.RedisDB, "redis-db", 0,
		"Redis logical database number")

	// Write-behind scheduler flags
	cmd.Flags().IntVar(&config.Global.Batch.BatchSize, "batch-size", config.Global.Batch.BatchSize,
		"Operations per flush (size trigger)")
	cmd.Flags().DurationVar(&config.Global.Batch.FlushInterval, "flush-interval", config.Global.Batch.FlushInterval,
		"Maximum queue age before a flush (timer trigger)")
	cmd.Flags().IntVar(&config.Global.Batch.MaxQueueSize, "max-queue-size", config.Global.Batch.MaxQueueSize,
		"Queue capacity before enqueues are rejected")
	cmd.Flags().IntVar(&config.Global.Batch.MaxRetries, "max-retries", config.Global.Batch.MaxRetries,
		"Retry attempts per operation after a failed flush")
	cmd.Flags().DurationVar(&config.Global.Batch.RetryDelay, "retry-delay", config.Global.Batch.RetryDelay,
		"Pause before a failed queue is flushed again")

	// Rate limit flags
	cmd.Flags().IntVar(&config.Global.OpsPerWindow, "ops-per-window", config.Global.OpsPerWindow,
		"Per-actor mutation operations allowed per window")
	cmd.Flags().DurationVar(&config.Global.OpsWindow, "ops-window", config.Global.OpsWindow,
		"Fixed rate limit window length")

	// Operational flags
	cmd.Flags().StringVar(&config.Global.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	cmd.Flags().StringVar(&config.Global.LogFile, "log-file", "",
		"Log file path (logs to console when empty)")
}
