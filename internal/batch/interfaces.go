package batch

import (
	"context"

	"github.com/plaza-dev/plaza/internal/world"
)

// Store is the durable tier as seen by batch executors: grouped multi-row
// writes, one call per flush. Implemented by the postgres client; tests
// substitute an in-memory fake to drive failure and retry paths.
type Store interface {
	// ApplyObjectBatch upserts deduplicated object states and soft-deletes
	// removed objects in a single transaction.
	ApplyObjectBatch(ctx context.Context, writes []world.ObjectWrite, deletes []string) error

	// AppendChatMessages inserts chat messages in enqueue order, skipping
	// message ids already present so retried batches stay idempotent.
	AppendChatMessages(ctx context.Context, messages []world.ChatMessage) error

	// AppendEvents inserts analytics events, skipping duplicate event ids.
	AppendEvents(ctx context.Context, events []world.Event) error

	// AppendMetricPoints inserts pre-aggregated metric buckets and trims
	// points older than the retention window.
	AppendMetricPoints(ctx context.Context, points []world.MetricPoint) error
}

// Cache is the fast tier as seen by batch executors. Every method fails
// open: cache unavailability degrades read freshness and live fan-out but
// never fails a flush, so none of these return errors.
type Cache interface {
	// SetObjects mirrors upserted object states into the per-space hash.
	SetObjects(ctx context.Context, spaceID string, objects []world.WorldObject)

	// RemoveObjects drops deleted objects from the per-space hash.
	RemoveObjects(ctx context.Context, spaceID string, objectIDs []string)

	// SetPositions writes the latest avatar transforms for a space.
	SetPositions(ctx context.Context, spaceID string, updates []world.PositionUpdate)

	// AppendChatHistory appends messages to the capped per-space chat list.
	AppendChatHistory(ctx context.Context, spaceID string, messages []world.ChatMessage)

	// Publish fans an envelope out to live subscribers of a space channel.
	Publish(ctx context.Context, channel string, env world.Envelope)
}

// Executor applies one flushed batch of same-kind operations. Process is
// all-or-nothing from the scheduler's point of view: a returned error sends
// the whole batch down the retry path.
type Executor interface {
	// Kind reports the operation kind this executor handles.
	Kind() world.OpKind

	// Process applies a batch of operations of the executor's kind. The
	// batch preserves enqueue order; dedup and grouping happen inside.
	Process(ctx context.Context, ops []world.Operation) error
}
