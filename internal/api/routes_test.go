package api

import (
	"testing"

	"github.com/gin-gonic/gin"
)

// TestSetupRoutes tests that routes are properly registered by checking the route tree
func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := DefaultConfig()
	config.Coordinator = testCoordinator(t)

	server := NewServer(config)
	router := gin.New()

	// Setup routes
	server.setupRoutes(router)

	// Get the registered routes from Gin's route tree
	routes := router.Routes()

	// Expected routes
	expectedRoutes := map[string]string{
		"GET /api/v1/health":                  "health endpoint",
		"GET /api/v1/stats":                   "stats endpoint",
		"POST /api/v1/flush":                  "flush endpoint",
		"GET /api/v1/spaces/:id/state":        "world state endpoint",
		"GET /api/v1/spaces/:id/objects":      "space objects endpoint",
		"GET /api/v1/spaces/:id/chat":         "space chat endpoint",
		"GET /api/v1/spaces/:id/sessions":     "space sessions endpoint",
		"POST /api/v1/spaces/:id/operations":  "operation ingress endpoint",
		"POST /api/v1/spaces/:id/join":        "join endpoint",
		"POST /api/v1/spaces/:id/leave":       "leave endpoint",
		"POST /api/v1/spaces/:id/screenshare": "screen share endpoint",
		"POST /api/v1/spaces/:id/models":      "model registration endpoint",
	}

	// Check that all expected routes are registered
	registeredRoutes := make(map[string]bool)
	for _, route := range routes {
		key := route.Method + " " + route.Path
		registeredRoutes[key] = true
	}

	for expectedRoute, description := range expectedRoutes {
		t.Run(description, func(t *testing.T) {
			if !registeredRoutes[expectedRoute] {
				t.Errorf("Route %s not registered", expectedRoute)
			}
		})
	}

	// Verify we have the expected number of routes (at least)
	if len(routes) < len(expectedRoutes) {
		t.Errorf("Expected at least %d routes, got %d", len(expectedRoutes), len(routes))
	}
}
