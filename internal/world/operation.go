package world

import (
	"fmt"
	"time"
)

// OpKind discriminates the mutation operations flowing through the batch
// scheduler. Each kind has its own queue, its own executor, and exactly one
// concrete payload shape below.
type OpKind string

const (
	// OpObjectUpdate creates or mutates a WorldObject (add, move, update,
	// delete are all expressed as upserts; delete sets the Deleted flag).
	OpObjectUpdate OpKind = "object-update"

	// OpPosition updates an avatar position. High frequency, low durability
	// value: written to the cache tier only, never to the durable store.
	OpPosition OpKind = "position"

	// OpChat appends a chat message. Append-only; never upserted.
	OpChat OpKind = "chat"

	// OpEvent appends an analytics event. Append-only.
	OpEvent OpKind = "event"

	// OpMetric records a raw metric sample, pre-aggregated per batch before
	// a single time-series write.
	OpMetric OpKind = "metric"
)

// Kinds lists every operation kind in a stable order. Used by the scheduler
// to initialize one queue per kind and by FlushAll to sweep them all.
func Kinds() []OpKind {
	return []OpKind{OpObjectUpdate, OpPosition, OpChat, OpEvent, OpMetric}
}

// ObjectUpdate is the payload for OpObjectUpdate operations. Action records
// the producer's intent; the executor treats every action as an upsert of the
// embedded object state so replays stay idempotent by ObjectID.
type ObjectUpdate struct {
	Action  string      `json:"action"` // add, move, update, delete
	Object  WorldObject `json:"object"`
	Deleted bool        `json:"deleted,omitempty"`
}

// PositionUpdate is the payload for OpPosition operations: one avatar's
// transform at an instant. Superseded within milliseconds by the next update
// for the same user, which is why this tier is deliberately lossy.
type PositionUpdate struct {
	SpaceID   string    `json:"spaceId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Position  Vector3   `json:"position"`
	Rotation  Vector3   `json:"rotation"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatPost is the payload for OpChat operations.
type ChatPost struct {
	Message ChatMessage `json:"message"`
}

// EventRecord is the payload for OpEvent operations.
type EventRecord struct {
	Event Event `json:"event"`
}

// MetricSample is the payload for OpMetric operations: one raw sample,
// ephemeral until folded into a MetricPoint by the metric executor.
type MetricSample struct {
	Name      string    `json:"name"`
	SpaceID   string    `json:"spaceId,omitempty"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Operation is one queued mutation: a kind discriminant, scheduler metadata,
// and exactly one non-nil payload matching the kind. The scheduler stamps
// EnqueuedAt and Attempt at admission; executors read only the payload.
//
// Identity for dedup purposes is the payload's entity key (EntityKey), not
// the operation itself: multiple operations for the same entity may coexist
// in a queue and are applied in enqueue order.
type Operation struct {
	Kind       OpKind    `json:"kind"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempt    int       `json:"attempt"`

	ObjectUpdate   *ObjectUpdate   `json:"objectUpdate,omitempty"`
	PositionUpdate *PositionUpdate `json:"positionUpdate,omitempty"`
	ChatPost       *ChatPost       `json:"chatPost,omitempty"`
	EventRecord    *EventRecord    `json:"eventRecord,omitempty"`
	MetricSample   *MetricSample   `json:"metricSample,omitempty"`
}

// NewObjectUpdate wraps an ObjectUpdate payload in an Operation.
func NewObjectUpdate(update ObjectUpdate) Operation {
	return Operation{Kind: OpObjectUpdate, ObjectUpdate: &update}
}

// NewPositionUpdate wraps a PositionUpdate payload in an Operation.
func NewPositionUpdate(update PositionUpdate) Operation {
	return Operation{Kind: OpPosition, PositionUpdate: &update}
}

// NewChatPost wraps a ChatPost payload in an Operation.
func NewChatPost(post ChatPost) Operation {
	return Operation{Kind: OpChat, ChatPost: &post}
}

// NewEventRecord wraps an EventRecord payload in an Operation.
func NewEventRecord(record EventRecord) Operation {
	return Operation{Kind: OpEvent, EventRecord: &record}
}

// NewMetricSample wraps a MetricSample payload in an Operation.
func NewMetricSample(sample MetricSample) Operation {
	return Operation{Kind: OpMetric, MetricSample: &sample}
}

// Validate checks that the operation carries exactly the payload its kind
// requires. Called at admission so executors never see a half-formed
// operation.
func (op Operation) Validate() error {
	switch op.Kind {
	case OpObjectUpdate:
		if op.ObjectUpdate == nil {
			return fmt.Errorf("object-update operation missing payload")
		}
		if op.ObjectUpdate.Object.ObjectID == "" {
			return fmt.Errorf("object-update operation missing object id")
		}
		if op.ObjectUpdate.Object.SpaceID == "" {
			return fmt.Errorf("object-update operation missing space id")
		}
	case OpPosition:
		if op.PositionUpdate == nil {
			return fmt.Errorf("position operation missing payload")
		}
		if op.PositionUpdate.UserID == "" || op.PositionUpdate.SpaceID == "" {
			return fmt.Errorf("position operation missing user or space id")
		}
	case OpChat:
		if op.ChatPost == nil {
			return fmt.Errorf("chat operation missing payload")
		}
		if op.ChatPost.Message.SpaceID == "" {
			return fmt.Errorf("chat operation missing space id")
		}
	case OpEvent:
		if op.EventRecord == nil {
			return fmt.Errorf("event operation missing payload")
		}
		if op.EventRecord.Event.Name == "" {
			return fmt.Errorf("event operation missing event name")
		}
	case OpMetric:
		if op.MetricSample == nil {
			return fmt.Errorf("metric operation missing payload")
		}
		if op.MetricSample.Name == "" {
			return fmt.Errorf("metric operation missing metric name")
		}
	default:
		return fmt.Errorf("unknown operation kind: %s", op.Kind)
	}
	return nil
}

// EntityKey returns the payload's natural entity key: the identity used for
// last-writer-wins dedup within a batch. Object id for objects, user id for
// positions, message/event id for append-only rows, metric name for samples.
func (op Operation) EntityKey() string {
	switch op.Kind {
	case OpObjectUpdate:
		if op.ObjectUpdate != nil {
			return op.ObjectUpdate.Object.ObjectID
		}
	case OpPosition:
		if op.PositionUpdate != nil {
			return op.PositionUpdate.UserID
		}
	case OpChat:
		if op.ChatPost != nil {
			return op.ChatPost.Message.MessageID
		}
	case OpEvent:
		if op.EventRecord != nil {
			return op.EventRecord.Event.EventID
		}
	case OpMetric:
		if op.MetricSample != nil {
			return op.MetricSample.Name
		}
	}
	return ""
}

// SpaceID returns the space partition the operation belongs to. Executors
// group batches by this key so cache updates and publishes stay scoped to
// the right space.
func (op Operation) SpaceID() string {
	switch op.Kind {
	case OpObjectUpdate:
		if op.ObjectUpdate != nil {
			return op.ObjectUpdate.Object.SpaceID
		}
	case OpPosition:
		if op.PositionUpdate != nil {
			return op.PositionUpdate.SpaceID
		}
	case OpChat:
		if op.ChatPost != nil {
			return op.ChatPost.Message.SpaceID
		}
	case OpEvent:
		if op.EventRecord != nil {
			return op.EventRecord.Event.SpaceID
		}
	case OpMetric:
		if op.MetricSample != nil {
			return op.MetricSample.SpaceID
		}
	}
	return ""
}
