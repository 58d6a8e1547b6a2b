// Package api provides the HTTP API server for the plaza world-state core.
//
// This file defines configuration structures and validation logic for the REST
// API server that fronts the batch scheduler, cache tier, and durable store.
// The configuration system manages network binding parameters, the per-actor
// rate limit applied to mutation traffic, and the reference to the coordinator
// that provides the underlying world-state functionality.
//
// The API configuration serves as the bridge between plaza's internal
// write-behind core and external producers like game clients and plazactl.
// Validation ensures the coordinator is wired and that network settings are
// valid before the server starts accepting traffic.
package api

import (
	"fmt"
	"time"

	"github.com/plaza-dev/plaza/internal/coordinator"
	"github.com/plaza-dev/plaza/internal/validate"
)

const (
	// DefaultAPIPort is the default port for the HTTP API server
	DefaultAPIPort = 8220

	// DefaultOpsPerWindow is the default per-actor mutation budget
	DefaultOpsPerWindow = 120

	// DefaultOpsWindow is the default fixed rate limit window
	DefaultOpsWindow = time.Minute
)

// Config holds all configuration parameters required for running the HTTP
// API server in front of the world-state core.
//
// The struct serves as a dependency injection container: the coordinator
// reference gives handlers access to the scheduler, cache, and store without
// coupling them to concrete wiring, which also keeps handlers testable with
// fake cores.
//
// TODO: Add support for TLS/HTTPS configuration (cert/key files)
// TODO: Add support for authentication/authorization middleware
type Config struct {
	BindAddr string // HTTP server bind address (e.g., "0.0.0.0")
	BindPort int    // HTTP server bind port

	OpsPerWindow int           // Per-actor mutation operations allowed per window
	OpsWindow    time.Duration // Fixed rate limit window length

	Coordinator *coordinator.Coordinator // Reference to the world-state core
}

// DefaultConfig creates a new Config instance with sensible default values
// for local development and testing environments. Loopback binding by
// default; the daemon overrides it for deployment.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "127.0.0.1",
		BindPort:     DefaultAPIPort,
		OpsPerWindow: DefaultOpsPerWindow,
		OpsWindow:    DefaultOpsWindow,
		Coordinator:  nil, // Must be set by caller
	}
}

// Validate performs validation of all configuration parameters to ensure the
// API server can start successfully and operate correctly. Early validation
// surfaces wiring mistakes before the server binds rather than as confusing
// request-time failures.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if c.OpsPerWindow <= 0 {
		return fmt.Errorf("ops per window must be positive, got %d", c.OpsPerWindow)
	}
	if c.OpsWindow <= 0 {
		return fmt.Errorf("ops window must be positive, got %v", c.OpsWindow)
	}
	if c.Coordinator == nil {
		return fmt.Errorf("coordinator cannot be nil")
	}

	return nil
}
