// Package config provides configuration management for the plazactl CLI.
package config

import "github.com/plaza-dev/plaza/internal/version"

const (
	DefaultAPIAddr = "127.0.0.1:8220" // Default daemon API address (routable)
)

// Version returns the current plazactl CLI version from the centralized version package
var Version = version.PlazactlVersion

// Global holds the global CLI configuration
var Global struct {
	APIAddr  string // Address of the plaza daemon API server
	LogLevel string // Log level for CLI operations
	Timeout  int    // Connection timeout in seconds
	Verbose  bool   // Show verbose output
	Output   string // Output format: table, json
}
