package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/world"
)

// OperationRequest is the mutation ingress body: an operation kind plus the
// matching payload. The space id always comes from the URL, never the body,
// so a payload cannot write into a space the request was not addressed to.
type OperationRequest struct {
	Kind    world.OpKind `json:"kind" binding:"required"`
	ActorID string       `json:"actorId"`

	ObjectUpdate   *world.ObjectUpdate   `json:"objectUpdate,omitempty"`
	PositionUpdate *world.PositionUpdate `json:"positionUpdate,omitempty"`
	ChatPost       *world.ChatPost       `json:"chatPost,omitempty"`
	EventRecord    *world.EventRecord    `json:"eventRecord,omitempty"`
	MetricSample   *world.MetricSample   `json:"metricSample,omitempty"`
}

// operation builds the scheduler operation for the request, stamping the
// addressed space into the payload.
func (r *OperationRequest) operation(spaceID string) (world.Operation, error) {
	switch r.Kind {
	case world.OpObjectUpdate:
		if r.ObjectUpdate == nil {
			return world.Operation{}, fmt.Errorf("missing objectUpdate payload")
		}
		r.ObjectUpdate.Object.SpaceID = spaceID
		return world.NewObjectUpdate(*r.ObjectUpdate), nil
	case world.OpPosition:
		if r.PositionUpdate == nil {
			return world.Operation{}, fmt.Errorf("missing positionUpdate payload")
		}
		r.PositionUpdate.SpaceID = spaceID
		return world.NewPositionUpdate(*r.PositionUpdate), nil
	case world.OpChat:
		if r.ChatPost == nil {
			return world.Operation{}, fmt.Errorf("missing chatPost payload")
		}
		r.ChatPost.Message.SpaceID = spaceID
		return world.NewChatPost(*r.ChatPost), nil
	case world.OpEvent:
		if r.EventRecord == nil {
			return world.Operation{}, fmt.Errorf("missing eventRecord payload")
		}
		r.EventRecord.Event.SpaceID = spaceID
		return world.NewEventRecord(*r.EventRecord), nil
	case world.OpMetric:
		if r.MetricSample == nil {
			return world.Operation{}, fmt.Errorf("missing metricSample payload")
		}
		r.MetricSample.SpaceID = spaceID
		return world.NewMetricSample(*r.MetricSample), nil
	default:
		return world.Operation{}, fmt.Errorf("unknown operation kind: %s", r.Kind)
	}
}

// HandleEnqueue admits one mutation operation into the batch scheduler.
// Returns 202 on admission: the write is durable only after the next flush
// cycle, which is the contract producers sign up for. Rejections surface as
// 429 (per-actor rate limit or full queue) and 400 (malformed payloads).
func HandleEnqueue(core Core, opsPerWindow int, opsWindow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		spaceID := c.Param("id")

		var req OperationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
			return
		}

		actor := req.ActorID
		if actor == "" {
			actor = c.ClientIP()
		}
		limit := core.CheckRateLimit(c.Request.Context(), actor, "operations", opsPerWindow, opsWindow)
		if !limit.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(limit.ResetIn.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":     "rate limit exceeded",
				"remaining": limit.Remaining,
				"resetInMs": limit.ResetIn.Milliseconds(),
			})
			return
		}

		op, err := req.operation(spaceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := core.Enqueue(op); err != nil {
			var full *batch.QueueFullError
			if errors.As(err, &full) {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "operation queue full, retry later",
					"kind":  string(full.Kind),
				})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":    "accepted",
			"kind":      string(op.Kind),
			"spaceId":   spaceID,
			"remaining": limit.Remaining,
		})
	}
}
