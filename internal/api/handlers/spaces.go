package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plaza-dev/plaza/internal/world"
)

// HandleWorldState returns the coherent join snapshot for a space: active
// objects, models, the recent chat window, live sessions, and the screen
// share flag. Cache-first; a miss falls through to the store's composed read.
func HandleWorldState(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := core.LoadWorldState(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load world state"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// HandleSpaceObjects returns the active objects in a space.
func HandleSpaceObjects(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		objects, err := core.SpaceObjects(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list objects"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"spaceId": c.Param("id"), "objects": objects, "count": len(objects)})
	}
}

// HandleSpaceChat returns the recent chat window for a space.
func HandleSpaceChat(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := core.RecentChat(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"spaceId": c.Param("id"), "messages": messages, "count": len(messages)})
	}
}

// HandleSpaceSessions returns live presence for a space.
func HandleSpaceSessions(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := core.ActiveSessions(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"spaceId": c.Param("id"), "sessions": sessions, "count": len(sessions)})
	}
}

// JoinRequest is the body for joining a space.
type JoinRequest struct {
	UserID    string        `json:"userId" binding:"required"`
	Username  string        `json:"username" binding:"required"`
	SocketRef string        `json:"socketRef"`
	Position  world.Vector3 `json:"position"`
	Rotation  world.Vector3 `json:"rotation"`
}

// HandleJoin registers a live session in a space and returns the session id
// the client uses for position updates and the eventual leave.
func HandleJoin(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req JoinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: userId and username are required"})
			return
		}

		session := world.Session{
			UserID:    req.UserID,
			Username:  req.Username,
			SpaceID:   c.Param("id"),
			SocketRef: req.SocketRef,
			Position:  req.Position,
			Rotation:  req.Rotation,
		}
		if err := core.JoinSpace(c.Request.Context(), session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join space"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "joined", "spaceId": session.SpaceID})
	}
}

// LeaveRequest is the body for leaving a space.
type LeaveRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// HandleLeave terminates a session. Terminal: the session is never
// reactivated.
func HandleLeave(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LeaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: sessionId is required"})
			return
		}
		if err := core.LeaveSpace(c.Request.Context(), c.Param("id"), req.SessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave space"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "left", "spaceId": c.Param("id")})
	}
}

// ScreenShareRequest is the body for flipping a space's screen share flag.
type ScreenShareRequest struct {
	Active bool `json:"active"`
}

// HandleScreenShare sets or clears the space's screen share flag in the
// cache tier.
func HandleScreenShare(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScreenShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		core.SetScreenShare(c.Request.Context(), c.Param("id"), req.Active)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active": req.Active})
	}
}

// ModelRequest is the body for registering an uploaded model reference.
type ModelRequest struct {
	Name       string `json:"name" binding:"required"`
	StorageKey string `json:"storageKey" binding:"required"`
	PublicURL  string `json:"publicUrl"`
	SizeBytes  int64  `json:"sizeBytes"`
	UploadedBy string `json:"uploadedBy"`
}

// HandleRegisterModel records an uploaded 3D model reference. Synchronous:
// the reference must exist before any object points at it.
func HandleRegisterModel(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ModelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: name and storageKey are required"})
			return
		}

		model := world.UploadedModel{
			SpaceID:    c.Param("id"),
			Name:       req.Name,
			StorageKey: req.StorageKey,
			PublicURL:  req.PublicURL,
			SizeBytes:  req.SizeBytes,
			UploadedBy: req.UploadedBy,
		}
		if err := core.RegisterModel(c.Request.Context(), model); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register model"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "registered", "spaceId": model.SpaceID})
	}
}
