// Package coordinator wires the write-behind core together: the batch
// scheduler in front, the durable store underneath, and the cache tier
// alongside. It is the single entry point the API surface talks to, so the
// read-through, write-behind, and presence flows stay in one place.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// Store is the durable tier surface the coordinator needs: the batch write
// interface plus the composed and per-entity reads. Satisfied by the
// postgres client.
type Store interface {
	batch.Store

	LoadWorldState(ctx context.Context, spaceID string) (*world.WorldState, error)
	ListObjects(ctx context.Context, spaceID string) ([]world.WorldObject, error)
	GetObject(ctx context.Context, objectID string) (*world.WorldObject, error)
	RecentChat(ctx context.Context, spaceID string, limit int) ([]world.ChatMessage, error)
	SoftDeleteChatMessage(ctx context.Context, messageID string) error

	GetSpace(ctx context.Context, spaceID string) (*world.Space, error)
	IncrementVisitorCount(ctx context.Context, spaceID string) error

	UpsertSession(ctx context.Context, s world.Session) error
	DeactivateSession(ctx context.Context, sessionID string) error
	ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error)

	UpsertModel(ctx context.Context, m world.UploadedModel) error
	ListModels(ctx context.Context, spaceID string) ([]world.UploadedModel, error)
}

// Cache is the fast tier surface the coordinator needs: the batch mirror
// interface plus reads, presence, rate limiting, and the snapshot entry
// cache. Satisfied by the cache client; every method except the typed reads
// fails open.
type Cache interface {
	batch.Cache

	Get(ctx context.Context, entryType cache.EntryType, id string, dest any) error
	Set(ctx context.Context, entryType cache.EntryType, id string, value any, ttlOverride ...time.Duration)
	Delete(ctx context.Context, entryType cache.EntryType, id string)

	GetObjects(ctx context.Context, spaceID string) (map[string]world.WorldObject, error)
	GetPositions(ctx context.Context, spaceID string) (map[string]world.PositionUpdate, error)
	GetChatHistory(ctx context.Context, spaceID string) ([]world.ChatMessage, error)

	TrackSession(ctx context.Context, session world.Session)
	EndSession(ctx context.Context, spaceID, sessionID string)
	ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error)

	SetScreenShare(ctx context.Context, spaceID string, active bool)
	ScreenShareActive(ctx context.Context, spaceID string) bool

	CheckRateLimit(ctx context.Context, actorID, action string, limit int, window time.Duration) cache.RateLimitResult

	GetStats() cache.Stats
}

// Stats aggregates the scheduler and cache counters for the stats endpoint.
type Stats struct {
	Batch batch.Stats `json:"batch"`
	Cache cache.Stats `json:"cache"`
}

// Coordinator owns the batch scheduler and mediates between producers, the
// cache tier, and the durable store.
type Coordinator struct {
	scheduler *batch.Scheduler
	store     Store
	cache     Cache
}

// New builds a coordinator and its scheduler. The scheduler is not running
// until Start is called.
func New(cfg *batch.Config, store Store, c Cache) (*Coordinator, error) {
	scheduler, err := batch.NewScheduler(cfg, batch.NewExecutors(store, c))
	if err != nil {
		return nil, fmt.Errorf("building batch scheduler: %w", err)
	}
	return &Coordinator{scheduler: scheduler, store: store, cache: c}, nil
}

// Start launches the scheduler's sweeper.
func (c *Coordinator) Start() {
	c.scheduler.Start()
}

// Enqueue stamps missing identities and timestamps on an operation and
// admits it into the scheduler. Chat messages and events get server-side
// ids here so producers cannot collide, and so retried batches dedup
// cleanly in the store.
func (c *Coordinator) Enqueue(op world.Operation) error {
	now := time.Now()
	switch {
	case op.ChatPost != nil:
		if op.ChatPost.Message.MessageID == "" {
			op.ChatPost.Message.MessageID = uuid.NewString()
		}
		if op.ChatPost.Message.CreatedAt.IsZero() {
			op.ChatPost.Message.CreatedAt = now
		}
	case op.EventRecord != nil:
		if op.EventRecord.Event.EventID == "" {
			op.EventRecord.Event.EventID = uuid.NewString()
		}
		if op.EventRecord.Event.CreatedAt.IsZero() {
			op.EventRecord.Event.CreatedAt = now
		}
	case op.PositionUpdate != nil:
		if op.PositionUpdate.Timestamp.IsZero() {
			op.PositionUpdate.Timestamp = now
		}
	case op.MetricSample != nil:
		if op.MetricSample.Timestamp.IsZero() {
			op.MetricSample.Timestamp = now
		}
	}
	return c.scheduler.Enqueue(op)
}

// LoadWorldState returns the coherent join snapshot for a space:
// cache-first, falling back to the store's single-transaction composed read
// on a miss and warming the cache with the result. The screen share flag is
// always read live from the cache since it changes outside the snapshot.
func (c *Coordinator) LoadWorldState(ctx context.Context, spaceID string) (*world.WorldState, error) {
	var cached world.WorldState
	if err := c.cache.Get(ctx, cache.TypeWorldState, spaceID, &cached); err == nil {
		cached.ActiveScreenShare = c.cache.ScreenShareActive(ctx, spaceID)
		return &cached, nil
	}

	state, err := c.store.LoadWorldState(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("loading world state for space %s: %w", spaceID, err)
	}
	state.ActiveScreenShare = c.cache.ScreenShareActive(ctx, spaceID)
	c.cache.Set(ctx, cache.TypeWorldState, spaceID, state)
	return state, nil
}

// SpaceObjects returns the active objects in a space, cache-first with a
// store fallback that re-warms the per-space hash.
func (c *Coordinator) SpaceObjects(ctx context.Context, spaceID string) ([]world.WorldObject, error) {
	if byID, err := c.cache.GetObjects(ctx, spaceID); err == nil {
		objects := make([]world.WorldObject, 0, len(byID))
		for _, obj := range byID {
			objects = append(objects, obj)
		}
		return objects, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}

	objects, err := c.store.ListObjects(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing objects for space %s: %w", spaceID, err)
	}
	if len(objects) > 0 {
		c.cache.SetObjects(ctx, spaceID, objects)
	}
	return objects, nil
}

// RecentChat returns the recent chat window for a space, cache-first.
func (c *Coordinator) RecentChat(ctx context.Context, spaceID string) ([]world.ChatMessage, error) {
	if msgs, err := c.cache.GetChatHistory(ctx, spaceID); err == nil {
		return msgs, nil
	}
	msgs, err := c.store.RecentChat(ctx, spaceID, cache.ChatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading chat for space %s: %w", spaceID, err)
	}
	return msgs, nil
}

// JoinSpace registers a live session: durable row, cache presence entry,
// visitor counter, and a user_joined analytics event through the normal
// batch path. The session write is synchronous because presence reads must
// see it immediately.
func (c *Coordinator) JoinSpace(ctx context.Context, session world.Session) error {
	if session.SessionID == "" {
		session.SessionID = uuid.NewString()
	}
	if session.ConnectedAt.IsZero() {
		session.ConnectedAt = time.Now()
	}
	session.IsActive = true

	if err := c.store.UpsertSession(ctx, session); err != nil {
		return fmt.Errorf("registering session: %w", err)
	}
	c.cache.TrackSession(ctx, session)
	// Invalidate the snapshot so the next join sees this session.
	c.cache.Delete(ctx, cache.TypeWorldState, session.SpaceID)

	if err := c.store.IncrementVisitorCount(ctx, session.SpaceID); err != nil {
		logging.Warn("Failed to bump visitor count for space %s: %v", session.SpaceID, err)
	}
	if err := c.Enqueue(world.NewEventRecord(world.EventRecord{Event: world.Event{
		SpaceID: session.SpaceID,
		UserID:  session.UserID,
		Name:    "user_joined",
	}})); err != nil {
		logging.Warn("Failed to enqueue join event: %v", err)
	}
	return nil
}

// LeaveSpace terminates a session. Deactivation is terminal: the durable
// row flips inactive exactly once and the presence entry is removed.
func (c *Coordinator) LeaveSpace(ctx context.Context, spaceID, sessionID string) error {
	if err := c.store.DeactivateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("deactivating session: %w", err)
	}
	c.cache.EndSession(ctx, spaceID, sessionID)
	c.cache.Delete(ctx, cache.TypeWorldState, spaceID)
	return nil
}

// ActiveSessions returns live presence for a space, cache-first with a
// durable fallback.
func (c *Coordinator) ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error) {
	if sessions, err := c.cache.ActiveSessions(ctx, spaceID); err == nil {
		return sessions, nil
	}
	sessions, err := c.store.ActiveSessions(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for space %s: %w", spaceID, err)
	}
	return sessions, nil
}

// SetScreenShare flips the space's screen share flag in the cache tier.
func (c *Coordinator) SetScreenShare(ctx context.Context, spaceID string, active bool) {
	c.cache.SetScreenShare(ctx, spaceID, active)
}

// RegisterModel records an uploaded model reference synchronously: uploads
// are rare and the reference must exist before any object points at it.
func (c *Coordinator) RegisterModel(ctx context.Context, m world.UploadedModel) error {
	if m.ModelID == "" {
		m.ModelID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := c.store.UpsertModel(ctx, m); err != nil {
		return fmt.Errorf("registering model: %w", err)
	}
	c.cache.Delete(ctx, cache.TypeWorldState, m.SpaceID)
	return nil
}

// CheckRateLimit applies a fixed-window rate limit for an actor and action.
// Fails open when the cache tier is down.
func (c *Coordinator) CheckRateLimit(ctx context.Context, actorID, action string, limit int, window time.Duration) cache.RateLimitResult {
	return c.cache.CheckRateLimit(ctx, actorID, action, limit, window)
}

// GetStats returns the combined scheduler and cache counters.
func (c *Coordinator) GetStats() Stats {
	return Stats{
		Batch: c.scheduler.GetStats(),
		Cache: c.cache.GetStats(),
	}
}

// FlushAll synchronously drains every scheduler queue to the store.
func (c *Coordinator) FlushAll(ctx context.Context) {
	c.scheduler.FlushAll(ctx)
}

// Shutdown drains the scheduler. The store and cache clients are owned by
// the daemon, which closes them after the drain completes.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.scheduler.Shutdown(ctx)
}
