// Package world defines the shared world-state domain model for plaza:
// spaces, the objects placed in them, live sessions, chat, uploaded model
// references, and the typed mutation operations that flow through the batch
// scheduler toward the durable store and cache.
//
// The durable store is the system of record for every entity here; the cache
// holds a time-bounded shadow copy for low-latency reads and cross-process
// fan-out. All types are JSON-serializable so they can travel through the
// cache's pub/sub channels and the REST API unchanged.
package world

import "time"

// Vector3 represents a position, rotation, or scale in space coordinates.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Space is the root aggregate that scopes all other entities. Spaces are
// created lazily on first reference: the first object placed or session
// opened in an unknown space id materializes the row.
type Space struct {
	SpaceID      string         `json:"spaceId"`
	Name         string         `json:"name"`
	Settings     map[string]any `json:"settings,omitempty"`
	MaxUsers     int            `json:"maxUsers"`
	VisitorCount int64          `json:"visitorCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// WorldObject is a persistent scene object within a space: its transform,
// ownership, free-form properties, and an interaction counter incremented on
// every mutation. Upserted by ObjectID, never duplicated. Soft-deleted rows
// are excluded from all active read paths.
type WorldObject struct {
	ObjectID         string         `json:"objectId"`
	SpaceID          string         `json:"spaceId"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	Position         Vector3        `json:"position"`
	Rotation         Vector3        `json:"rotation"`
	Scale            Vector3        `json:"scale"`
	ModelID          string         `json:"modelId,omitempty"`
	OwnerID          string         `json:"ownerId"`
	Properties       map[string]any `json:"properties,omitempty"`
	InteractionCount int64          `json:"interactionCount"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// ObjectSummary is the compact per-object payload published to a space's
// object channel after a flush. Subscribers needing full state load it from
// the cache hash or the durable store.
type ObjectSummary struct {
	ObjectID string  `json:"objectId"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
	OwnerID  string  `json:"ownerId"`
}

// Session is one live connection to a space. Ephemeral: the cache holds it
// under a short TTL for presence, the durable row is kept for analytics.
// IsActive=false is terminal; a session is never reactivated.
type Session struct {
	SessionID      string     `json:"sessionId"`
	UserID         string     `json:"userId"`
	Username       string     `json:"username"`
	SpaceID        string     `json:"spaceId"`
	SocketRef      string     `json:"socketRef,omitempty"`
	Position       Vector3    `json:"position"`
	Rotation       Vector3    `json:"rotation"`
	ConnectedAt    time.Time  `json:"connectedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
	IsActive       bool       `json:"isActive"`
}

// ChatMessage is an append-only chat row. Soft-deleted only; this core never
// hard-deletes chat. A bounded recency window (the last 100 messages per
// space) is mirrored in the cache.
type ChatMessage struct {
	MessageID string     `json:"messageId"`
	SpaceID   string     `json:"spaceId"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// UploadedModel references a 3D asset uploaded to external storage. Rows are
// appended on first upload and only the usage counter mutates afterward.
type UploadedModel struct {
	ModelID    string    `json:"modelId"`
	SpaceID    string    `json:"spaceId"`
	Name       string    `json:"name"`
	StorageKey string    `json:"storageKey"`
	PublicURL  string    `json:"publicUrl"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedBy string    `json:"uploadedBy"`
	UsageCount int64     `json:"usageCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Event is an append-only analytics record (joins, interactions, uploads).
// Never read on any hot path; written in batches for offline analysis.
type Event struct {
	EventID   string         `json:"eventId"`
	SpaceID   string         `json:"spaceId"`
	UserID    string         `json:"userId,omitempty"`
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MetricPoint is one pre-aggregated time-series entry: a batch of raw metric
// samples folded into count/sum/min/max before a single compact write.
// Individual samples are never durable.
type MetricPoint struct {
	Name      string    `json:"name"`
	SpaceID   string    `json:"spaceId,omitempty"`
	Count     int64     `json:"count"`
	Sum       float64   `json:"sum"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Timestamp time.Time `json:"timestamp"`
}

// ObjectWrite is one deduplicated object state plus the number of operations
// that collapsed into it during a flush. The delta lands on the object's
// interaction counter so a batch of N moves increments it by N even though
// only the last state survives.
type ObjectWrite struct {
	Object           WorldObject
	InteractionDelta int64
}

// WorldState is the coherent snapshot a client receives on (re)join: all
// active objects and models in the space, the recent chat window, live
// sessions, and whether a screen share is running. Composed from per-table
// reads inside one store transaction so the pieces agree with each other.
type WorldState struct {
	SpaceID           string          `json:"spaceId"`
	Objects           []WorldObject   `json:"objects"`
	Models            []UploadedModel `json:"models"`
	RecentChat        []ChatMessage   `json:"recentChat"`
	ActiveSessions    []Session       `json:"activeSessions"`
	ActiveScreenShare bool            `json:"activeScreenShare"`
	LoadedAt          time.Time       `json:"loadedAt"`
}
