package commands

import (
	"github.com/spf13/cobra"
)

// Health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show daemon health, version, and uptime",
	Args:  cobra.NoArgs,
}

// Stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show batch scheduler and cache tier counters",
	Long: `Show the write-behind core's throughput counters: per-kind queue
depths, processed/failed/retried/rejected operation totals, flush
latency, and cache hit rates.`,
	Args: cobra.NoArgs,
}

// Flush command
var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Synchronously drain every batch queue to the durable store",
	Long: `Ask the daemon to flush all pending operations to Postgres and block
until the drain completes. Normal traffic never needs this; it exists
for maintenance windows and pre-shutdown verification.`,
	Args: cobra.NoArgs,
}

// GetCoreCommands returns references to the top-level commands for handler
// and flag assignment
func GetCoreCommands() (healthCommand, statsCommand, flushCommand *cobra.Command) {
	return healthCmd, statsCmd, flushCmd
}
