// Package utils contains utility functions for the plaza daemon.
package utils

import (
	"fmt"
)

// DisplayLogo prints the plaza ASCII logo with version information
func DisplayLogo(version string) {
	fmt.Println()
	fmt.Println(` ░░░░░░░░░░░░░░░░░░░░░░░
 ░█▀█░█░░░█▀█░▀▀█░█▀█░░░
 ░█▀▀░█░░░█▀█░▄▀░░█▀█░░░
 ░▀░░░▀▀▀░▀░▀░▀▀▀░▀░▀░░░
 ░░░░░░░░░░░░░░░░░░░░░░░`)
	fmt.Printf("\n Plaza v%s - Shared World State Core\n", version)
	fmt.Println(" Write-behind batching for multiplayer spaces")
	fmt.Println()
}
