// Package config provides configuration management for the plazactl CLI.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/validate"
)

// ValidateGlobalFlags validates all global flags before running any command
func ValidateGlobalFlags(cmd *cobra.Command, args []string) error {
	if err := ValidateAPIAddress(); err != nil {
		return err
	}

	if err := ValidateOutputFormat(); err != nil {
		return err
	}

	return nil
}

// ValidateAPIAddress validates the --api flag
func ValidateAPIAddress() error {
	host, portStr, err := net.SplitHostPort(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid API address - expected format: host:port (e.g., 127.0.0.1:8220)")
	}

	// Reject unroutable 0.0.0.0 target for client connections
	if host == "0.0.0.0" {
		logging.Error("Unroutable API address '0.0.0.0:%s' - cannot connect to 0.0.0.0", portStr)
		return fmt.Errorf("unroutable API address - use 127.0.0.1 or a specific IP address")
	}

	// Client must connect to a specific port (not 0)
	port, err := strconv.Atoi(portStr)
	if err != nil || validate.ValidatePortRange(port) != nil {
		logging.Error("Invalid API port '%s'", portStr)
		return fmt.Errorf("API port must be between 1-65535")
	}

	return nil
}

// ValidateOutputFormat validates the --output flag
func ValidateOutputFormat() error {
	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
	}
	if !validOutputs[Global.Output] {
		logging.Error("Invalid output format '%s' - valid formats are: table, json", Global.Output)
		return fmt.Errorf("invalid output format - valid: table, json")
	}
	return nil
}
