// Package handlers implements the HTTP endpoint handlers for the plaza API
// server. Handlers are factories over a Core interface so tests can exercise
// them against a fake without standing up Postgres or Redis.
package handlers

import (
	"context"
	"time"

	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/coordinator"
	"github.com/plaza-dev/plaza/internal/world"
)

// Core is the coordinator surface the handlers consume. Satisfied by
// *coordinator.Coordinator.
type Core interface {
	Enqueue(op world.Operation) error

	LoadWorldState(ctx context.Context, spaceID string) (*world.WorldState, error)
	SpaceObjects(ctx context.Context, spaceID string) ([]world.WorldObject, error)
	RecentChat(ctx context.Context, spaceID string) ([]world.ChatMessage, error)
	ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error)

	JoinSpace(ctx context.Context, session world.Session) error
	LeaveSpace(ctx context.Context, spaceID, sessionID string) error
	SetScreenShare(ctx context.Context, spaceID string, active bool)
	RegisterModel(ctx context.Context, m world.UploadedModel) error

	CheckRateLimit(ctx context.Context, actorID, action string, limit int, window time.Duration) cache.RateLimitResult
	GetStats() coordinator.Stats
	FlushAll(ctx context.Context)
}
