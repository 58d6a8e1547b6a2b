package api

import (
	"github.com/gin-gonic/gin"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// API version prefix
	v1 := router.Group("/api/v1")

	// Health and operational endpoints
	v1.GET("/health", s.handleHealth)
	v1.GET("/stats", s.handleStats)
	v1.POST("/flush", s.handleFlush)

	// Space-scoped world state endpoints
	spaces := v1.Group("/spaces")
	{
		spaces.GET("/:id/state", s.handleWorldState)
		spaces.GET("/:id/objects", s.handleSpaceObjects)
		spaces.GET("/:id/chat", s.handleSpaceChat)
		spaces.GET("/:id/sessions", s.handleSpaceSessions)

		spaces.POST("/:id/operations", s.handleEnqueue)
		spaces.POST("/:id/join", s.handleJoin)
		spaces.POST("/:id/leave", s.handleLeave)
		spaces.POST("/:id/screenshare", s.handleScreenShare)
		spaces.POST("/:id/models", s.handleRegisterModel)
	}
}
