package commands

import (
	"github.com/spf13/cobra"
)

// Space parent command
var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Inspect the live state of a space",
	Long: `Space commands read through the daemon's cache-first path: answers
come from Redis when the mirror is warm and fall back to Postgres on a
miss. Pending batched writes may not be visible until the next flush.`,
}

// Space subcommands
var spaceStateCmd = &cobra.Command{
	Use:   "state <space-id>",
	Short: "Show the full join snapshot for a space",
	Args:  cobra.ExactArgs(1),
}

var spaceObjectsCmd = &cobra.Command{
	Use:   "objects <space-id>",
	Short: "List the active objects in a space",
	Args:  cobra.ExactArgs(1),
}

var spaceChatCmd = &cobra.Command{
	Use:   "chat <space-id>",
	Short: "Show the recent chat window for a space",
	Args:  cobra.ExactArgs(1),
}

var spaceSessionsCmd = &cobra.Command{
	Use:   "sessions <space-id>",
	Short: "Show live presence for a space",
	Args:  cobra.ExactArgs(1),
}

// SetupSpaceCommands wires the space subcommands under the parent
func SetupSpaceCommands() {
	spaceCmd.AddCommand(spaceStateCmd)
	spaceCmd.AddCommand(spaceObjectsCmd)
	spaceCmd.AddCommand(spaceChatCmd)
	spaceCmd.AddCommand(spaceSessionsCmd)
}

// GetSpaceCommands returns references to the space subcommands for handler
// and flag assignment
func GetSpaceCommands() (stateCommand, objectsCommand, chatCommand, sessionsCommand *cobra.Command) {
	return spaceStateCmd, spaceObjectsCmd, spaceChatCmd, spaceSessionsCmd
}
