// Package api provides the HTTP API server for the plaza world-state core.
// The server exposes mutation ingress into the batch scheduler and the
// cache-first read endpoints, allowing game backends and plazactl to work
// with shared world state over REST.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plaza-dev/plaza/internal/api/handlers"
	"github.com/plaza-dev/plaza/internal/coordinator"
	"github.com/plaza-dev/plaza/internal/logging"
)

// Represents the plaza API server
type Server struct {
	coordinator *coordinator.Coordinator
	httpServer  *http.Server
	bindAddr    string
	bindPort    int

	opsPerWindow int
	opsWindow    time.Duration
}

// NewServer creates a new plaza API server instance
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		coordinator:  config.Coordinator,
		bindAddr:     config.BindAddr,
		bindPort:     config.BindPort,
		opsPerWindow: config.OpsPerWindow,
		opsWindow:    config.OpsWindow,
	}
}

// Start starts the plaza API server
func (s *Server) Start() error {
	logging.Info("Starting HTTP API server on %s:%d", s.bindAddr, s.bindPort)

	// Create Gin router
	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	// Add middleware
	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	// Setup routes
	s.setupRoutes(router)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.bindAddr, s.bindPort),
		Handler: router,
		// Timeouts for production
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Test binding first to catch errors immediately
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}
	listener.Close() // Close the test listener

	// Start server in goroutine now that we know binding works
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

var (
	startTime = time.Now()  // Track server start time for uptime calculation
	version   = "0.1.0-dev" // Version information
)

// handleHealth delegates to handlers.HandleHealth
func (s *Server) handleHealth(c *gin.Context) {
	handlers.HandleHealth(version, startTime)(c)
}

// handleStats delegates to handlers.HandleStats
func (s *Server) handleStats(c *gin.Context) {
	handlers.HandleStats(s.coordinator)(c)
}

// handleFlush delegates to handlers.HandleFlush
func (s *Server) handleFlush(c *gin.Context) {
	handlers.HandleFlush(s.coordinator)(c)
}

// handleWorldState delegates to handlers.HandleWorldState
func (s *Server) handleWorldState(c *gin.Context) {
	handlers.HandleWorldState(s.coordinator)(c)
}

// handleSpaceObjects delegates to handlers.HandleSpaceObjects
func (s *Server) handleSpaceObjects(c *gin.Context) {
	handlers.HandleSpaceObjects(s.coordinator)(c)
}

// handleSpaceChat delegates to handlers.HandleSpaceChat
func (s *Server) handleSpaceChat(c *gin.Context) {
	handlers.HandleSpaceChat(s.coordinator)(c)
}

// handleSpaceSessions delegates to handlers.HandleSpaceSessions
func (s *Server) handleSpaceSessions(c *gin.Context) {
	handlers.HandleSpaceSessions(s.coordinator)(c)
}

// handleEnqueue delegates to handlers.HandleEnqueue
func (s *Server) handleEnqueue(c *gin.Context) {
	handlers.HandleEnqueue(s.coordinator, s.opsPerWindow, s.opsWindow)(c)
}

// handleJoin delegates to handlers.HandleJoin
func (s *Server) handleJoin(c *gin.Context) {
	handlers.HandleJoin(s.coordinator)(c)
}

// handleLeave delegates to handlers.HandleLeave
func (s *Server) handleLeave(c *gin.Context) {
	handlers.HandleLeave(s.coordinator)(c)
}

// handleScreenShare delegates to handlers.HandleScreenShare
func (s *Server) handleScreenShare(c *gin.Context) {
	handlers.HandleScreenShare(s.coordinator)(c)
}

// handleRegisterModel delegates to handlers.HandleRegisterModel
func (s *Server) handleRegisterModel(c *gin.Context) {
	handlers.HandleRegisterModel(s.coordinator)(c)
}
