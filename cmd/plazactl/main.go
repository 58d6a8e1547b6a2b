// Package main provides the entry point for the plaza CLI tool (plazactl).
//
// This package implements the main executable for the CLI that enables
// operators to interact with a running plaza daemon: the write-behind
// batching, caching, and persistence core behind shared multiplayer spaces.
//
// CLI ARCHITECTURE:
// The main package orchestrates the complete CLI system including:
//   - Command Structure: Resource-based commands (health, stats, flush, space)
//   - Handler Integration: Command execution with API client communication
//   - Flag Management: Global and command-specific configuration options
//   - Configuration Binding: CLI state management and validation pipeline
//
// COMMAND CATEGORIES:
//   - Health/Stats Commands: Daemon liveness and scheduler throughput
//   - Flush Command: Synchronous drain of every write-behind queue
//   - Space Commands: World state, object, chat, and presence inspection
//
// INITIALIZATION FLOW:
// 1. Command structure setup with hierarchical organization
// 2. Flag configuration for global and command-specific options
// 3. Handler assignment linking commands to API operations
// 4. Configuration validation and CLI state management
// 5. Command execution with proper error handling and exit codes
//
// The CLI follows kubectl-style patterns for intuitive daemon management
// with consistent interfaces and comprehensive help text.
package main

import (
	"os"

	"github.com/plaza-dev/plaza/cmd/plazactl/commands"
	"github.com/plaza-dev/plaza/cmd/plazactl/config"
	"github.com/plaza-dev/plaza/cmd/plazactl/handlers"
)

func init() {
	// Get root command from commands package
	rootCmd := commands.RootCmd

	// Set version and validation
	rootCmd.Version = config.Version
	rootCmd.PersistentPreRunE = config.ValidateGlobalFlags

	// Setup all command structures
	commands.SetupCommands()
	commands.SetupSpaceCommands()

	// Setup global flags
	commands.SetupGlobalFlags(rootCmd, &config.Global.APIAddr, &config.Global.LogLevel,
		&config.Global.Timeout, &config.Global.Verbose, &config.Global.Output, config.DefaultAPIAddr)

	// Setup command handlers
	setupCommandHandlers()
}

// setupCommandHandlers assigns RunE functions to commands
func setupCommandHandlers() {
	healthCmd, statsCmd, flushCmd := commands.GetCoreCommands()
	healthCmd.RunE = handlers.HandleHealth
	statsCmd.RunE = handlers.HandleStats
	flushCmd.RunE = handlers.HandleFlush

	stateCmd, objectsCmd, chatCmd, sessionsCmd := commands.GetSpaceCommands()
	stateCmd.RunE = handlers.HandleSpaceState
	objectsCmd.RunE = handlers.HandleSpaceObjects
	chatCmd.RunE = handlers.HandleSpaceChat
	sessionsCmd.RunE = handlers.HandleSpaceSessions
}

// main is the main entry point
func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
