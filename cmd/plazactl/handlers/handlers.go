// Package handlers provides command handler functions for plazactl.
//
// This package contains the command execution logic for all plazactl
// commands. Each handler follows the same pattern:
// - cobra.Command RunE function signature for CLI integration
// - Standardized error handling and logging using the logging package
// - Consistent output formatting through the display package
// - Clean separation between API communication and presentation logic
//
// The handlers coordinate between the API client, display functions, and
// user input while keeping presentation concerns out of the client layer.
package handlers

import (
	"github.com/spf13/cobra"

	"github.com/plaza-dev/plaza/cmd/plazactl/client"
	"github.com/plaza-dev/plaza/cmd/plazactl/config"
	"github.com/plaza-dev/plaza/cmd/plazactl/display"
	"github.com/plaza-dev/plaza/cmd/plazactl/utils"
	"github.com/plaza-dev/plaza/internal/logging"
)

// HandleHealth handles the health command for checking daemon liveness,
// version, and uptime.
func HandleHealth(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Fetching daemon health from API server: %s", config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	health, err := apiClient.GetHealth()
	if err != nil {
		return err
	}

	display.DisplayHealth(health)
	return nil
}

// HandleStats handles the stats command for displaying the write-behind
// core's throughput counters: queue depths, flush totals, and cache hit
// rates.
func HandleStats(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Fetching scheduler stats from API server: %s", config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	stats, err := apiClient.GetStats()
	if err != nil {
		return err
	}

	display.DisplayStats(stats)
	return nil
}

// HandleFlush handles the flush command. Blocks until the daemon reports
// every batch queue drained to the durable store.
func HandleFlush(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Requesting queue drain from API server: %s", config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	if err := apiClient.FlushAll(); err != nil {
		return err
	}

	logging.RestoreOutput()
	logging.Success("All batch queues flushed to the durable store")
	return nil
}

// HandleSpaceState handles the space state subcommand for displaying the
// full join snapshot of a space.
func HandleSpaceState(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	spaceID := args[0]
	logging.Info("Fetching world state for space %s from API server: %s", spaceID, config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	state, err := apiClient.GetWorldState(spaceID)
	if err != nil {
		return err
	}

	display.DisplayWorldState(state)
	return nil
}

// HandleSpaceObjects handles the space objects subcommand for listing the
// active objects in a space.
func HandleSpaceObjects(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	spaceID := args[0]
	logging.Info("Fetching objects for space %s from API server: %s", spaceID, config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	objects, err := apiClient.GetSpaceObjects(spaceID)
	if err != nil {
		return err
	}

	display.DisplaySpaceObjects(objects)
	return nil
}

// HandleSpaceChat handles the space chat subcommand for displaying the
// recent chat window of a space.
func HandleSpaceChat(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	spaceID := args[0]
	logging.Info("Fetching chat window for space %s from API server: %s", spaceID, config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	chat, err := apiClient.GetSpaceChat(spaceID)
	if err != nil {
		return err
	}

	display.DisplaySpaceChat(chat)
	return nil
}

// HandleSpaceSessions handles the space sessions subcommand for displaying
// live presence in a space.
func HandleSpaceSessions(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	spaceID := args[0]
	logging.Info("Fetching sessions for space %s from API server: %s", spaceID, config.Global.APIAddr)

	apiClient := client.CreateAPIClient()
	sessions, err := apiClient.GetSpaceSessions(spaceID)
	if err != nil {
		return err
	}

	display.DisplaySpaceSessions(sessions)
	return nil
}
