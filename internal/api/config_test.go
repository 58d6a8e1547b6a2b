package api

import (
	"testing"
	"time"
)

// TestConfig_Validate_Valid tests Config.Validate() with valid configuration
func TestConfig_Validate_Valid(t *testing.T) {
	config := DefaultConfig()
	config.Coordinator = testCoordinator(t)

	if err := config.Validate(); err != nil {
		t.Errorf("Config.Validate() = %v, want nil", err)
	}
}

// TestConfig_Validate_Invalid tests Config.Validate() with key invalid cases
func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty bind address", mutate: func(c *Config) { c.BindAddr = "" }},
		{name: "invalid port", mutate: func(c *Config) { c.BindPort = 0 }},
		{name: "invalid port high", mutate: func(c *Config) { c.BindPort = 99999 }},
		{name: "zero ops budget", mutate: func(c *Config) { c.OpsPerWindow = 0 }},
		{name: "zero ops window", mutate: func(c *Config) { c.OpsWindow = 0 * time.Second }},
		{name: "nil coordinator", mutate: func(c *Config) { c.Coordinator = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Coordinator = testCoordinator(t)
			tt.mutate(config)

			if err := config.Validate(); err == nil {
				t.Errorf("Config.Validate() = nil, want error for %s", tt.name)
			}
		})
	}
}
