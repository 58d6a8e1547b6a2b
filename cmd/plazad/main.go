package main

import (
	"os"

	"github.com/plaza-dev/plaza/cmd/plazad/commands"
)

func main() {
	commands.SetupCommands()

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
