// Package commands provides the complete command tree implementation for plazactl.
//
// This package defines the hierarchical command structure for the plaza CLI
// tool, implementing a resource-based command architecture similar to kubectl.
// Commands are organized into logical groups matching the daemon's surface.
//
// COMMAND STRUCTURE:
//   - health: Daemon liveness, version, and uptime
//   - stats: Batch scheduler and cache tier counters
//   - flush: Synchronous drain of every write-behind queue
//   - space: Space-scoped reads (state, objects, chat, sessions)
//
// All commands follow consistent patterns with standardized flag handling,
// error messages, and output formatting.
package commands

import (
	"github.com/spf13/cobra"
)

// Root command
var RootCmd = &cobra.Command{
	Use:   "plazactl",
	Short: "CLI tool for the plaza shared world state daemon",
	Long: `Plaza CLI (plazactl) is a command-line tool for inspecting and
operating a plaza daemon: the write-behind batching, caching, and
persistence core behind shared multiplayer spaces.

Similar to kubectl for Kubernetes, plazactl lets you check daemon
health, watch scheduler throughput, drain queues, and inspect the
live state of any space.`,
	SilenceUsage: true,
	Example: `  # Check daemon health
  plazactl health

  # Show scheduler and cache counters
  plazactl stats

  # Drain every batch queue to the durable store
  plazactl flush

  # Show the full join snapshot for a space
  plazactl space state lobby

  # List the active objects in a space
  plazactl space objects lobby

  # Show the recent chat window
  plazactl space chat lobby

  # Show live presence
  plazactl space sessions lobby

  # Connect to a remote daemon
  plazactl --api=192.168.1.100:8220 stats

  # Output in JSON format
  plazactl --output=json space state lobby
  plazactl -o json stats`,
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	// Add all top-level commands to root
	RootCmd.AddCommand(healthCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(flushCmd)
	RootCmd.AddCommand(spaceCmd)
}

// SetupGlobalFlags configures all global persistent flags
func SetupGlobalFlags(rootCmd *cobra.Command, apiAddrPtr *string, logLevelPtr *string,
	timeoutPtr *int, verbosePtr *bool, outputPtr *string, defaultAPIAddr string) {
	rootCmd.PersistentFlags().StringVar(apiAddrPtr, "api", defaultAPIAddr,
		"Daemon API server address")
	rootCmd.PersistentFlags().StringVar(logLevelPtr, "log-level", "ERROR",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().IntVar(timeoutPtr, "timeout", 8,
		"Connection timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(verbosePtr, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVarP(outputPtr, "output", "o", "table",
		"Output format: table, json")
}
