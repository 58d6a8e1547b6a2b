// Package commands provides the CLI command structure for the plaza daemon.
//
// This package implements the root command for plazad, the write-behind
// world-state daemon. It manages the CLI interface for backend endpoints,
// scheduler tuning, and operational parameters through a flag system and a
// validation pipeline that runs before the daemon starts.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plaza-dev/plaza/cmd/plazad/config"
	"github.com/plaza-dev/plaza/cmd/plazad/daemon"
	"github.com/plaza-dev/plaza/cmd/plazad/utils"
	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/version"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists.
// Called during daemon shutdown to ensure proper cleanup.
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Write to stderr since we're cleaning up the log file.
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for the plaza daemon
var RootCmd = &cobra.Command{
	Use:   "plazad",
	Short: "Write-behind world state daemon for shared multiplayer spaces",
	Long: `Plaza daemon (plazad) coordinates shared world state for multiplayer spaces.

High-frequency mutations (object moves, avatar positions, chat) are absorbed
into per-kind batch queues and flushed to Postgres in grouped multi-row
transactions, while Redis carries the low-latency shadow copy, presence, and
live fan-out.`,
	Version:      version.PlazadVersion,
	SilenceUsage: true, // Don't show usage on errors
	Example: `	  # Start with local defaults (Postgres and Redis on localhost)
	  plazad

	  # Bind the API externally and point at deployed backends
	  plazad --api=0.0.0.0 --api-port=8220 \
	    --postgres-dsn=postgres://plaza:secret@db:5432/plaza --redis=redis-host:6379

	  # Tune the write-behind cycle
	  plazad --batch-size=200 --flush-interval=50ms

	  # Log to a file at DEBUG level
	  plazad --log-level=DEBUG --log-file=/var/log/plaza/plazad.log`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Display logo first, before any validation or logging
		utils.DisplayLogo(version.PlazadVersion)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup log file redirection if --log-file was specified
		if config.Global.LogFile != "" {
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}

			// Redirect all logging to the file
			logging.SetOutput(logFileHandle)
		}

		// Configure logging level immediately after flags are parsed to
		// prevent INFO logs during config initialization when ERROR level
		// is requested
		logging.SetLevel(config.Global.LogLevel)
		// Apply environment variable overrides for unset values
		config.InitializeConfig()
		if err := config.ValidateConfig(); err != nil {
			// Close log file handle if validation fails to prevent leak
			CleanupLogFile()
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ensure log file cleanup on exit
		defer CleanupLogFile()
		return daemon.Run()
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	// Setup all flags
	SetupFlags(RootCmd)

	// Currently only has the root command
	// Future subcommands can be added here
}
