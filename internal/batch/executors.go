package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// NewExecutors wires the standard executor set: one per operation kind,
// sharing the durable store and cache tier. This is the map NewScheduler
// expects.
func NewExecutors(store Store, cache Cache) map[world.OpKind]Executor {
	return map[world.OpKind]Executor{
		world.OpObjectUpdate: &ObjectExecutor{store: store, cache: cache},
		world.OpPosition:     &PositionExecutor{cache: cache},
		world.OpChat:         &ChatExecutor{store: store, cache: cache},
		world.OpEvent:        &EventExecutor{store: store},
		world.OpMetric:       &MetricExecutor{store: store},
	}
}

// ObjectExecutor flushes object-update batches. Within a batch it collapses
// operations per object id to the last-written state, counting every
// collapsed operation as an interaction, then writes all surviving states in
// one store transaction, mirrors them into the per-space cache hash, and
// publishes one object envelope per touched space.
//
// A delete supersedes earlier updates for the same object in the batch, and
// a later update supersedes an earlier delete: only the final intent per
// object reaches the store.
type ObjectExecutor struct {
	store Store
	cache Cache
}

func (e *ObjectExecutor) Kind() world.OpKind { return world.OpObjectUpdate }

func (e *ObjectExecutor) Process(ctx context.Context, ops []world.Operation) error {
	type pending struct {
		update  world.ObjectUpdate
		touches int64
	}

	// Last-writer-wins per object id, preserving first-seen order so the
	// multi-row write is deterministic.
	byObject := make(map[string]*pending, len(ops))
	order := make([]string, 0, len(ops))
	for _, op := range ops {
		u := *op.ObjectUpdate
		p, ok := byObject[u.Object.ObjectID]
		if !ok {
			byObject[u.Object.ObjectID] = &pending{update: u, touches: 1}
			order = append(order, u.Object.ObjectID)
			continue
		}
		p.update = u
		p.touches++
	}

	writes := make([]world.ObjectWrite, 0, len(order))
	deletes := make([]string, 0)
	liveBySpace := make(map[string][]world.WorldObject)
	goneBySpace := make(map[string][]string)
	for _, id := range order {
		p := byObject[id]
		if p.update.Deleted || p.update.Action == "delete" {
			deletes = append(deletes, id)
			goneBySpace[p.update.Object.SpaceID] = append(goneBySpace[p.update.Object.SpaceID], id)
			continue
		}
		writes = append(writes, world.ObjectWrite{Object: p.update.Object, InteractionDelta: p.touches})
		liveBySpace[p.update.Object.SpaceID] = append(liveBySpace[p.update.Object.SpaceID], p.update.Object)
	}

	if err := e.store.ApplyObjectBatch(ctx, writes, deletes); err != nil {
		return fmt.Errorf("applying object batch: %w", err)
	}

	for spaceID, objects := range liveBySpace {
		e.cache.SetObjects(ctx, spaceID, objects)
	}
	for spaceID, ids := range goneBySpace {
		e.cache.RemoveObjects(ctx, spaceID, ids)
	}
	e.publish(ctx, liveBySpace, goneBySpace)
	return nil
}

// publish fans one objects envelope out per touched space: compact summaries
// for surviving objects plus the ids removed this flush.
func (e *ObjectExecutor) publish(ctx context.Context, live map[string][]world.WorldObject, gone map[string][]string) {
	spaces := make(map[string]bool, len(live)+len(gone))
	for spaceID := range live {
		spaces[spaceID] = true
	}
	for spaceID := range gone {
		spaces[spaceID] = true
	}

	for spaceID := range spaces {
		summaries := make([]world.ObjectSummary, 0, len(live[spaceID]))
		for _, obj := range live[spaceID] {
			summaries = append(summaries, world.ObjectSummary{
				ObjectID: obj.ObjectID,
				Name:     obj.Name,
				Type:     obj.Type,
				Position: obj.Position,
				Rotation: obj.Rotation,
				OwnerID:  obj.OwnerID,
			})
		}
		env, err := world.NewEnvelope(world.EnvelopeObjects, spaceID, map[string]any{
			"objects": summaries,
			"removed": gone[spaceID],
		})
		if err != nil {
			logging.Warn("Skipping objects publish for space %s: %v", spaceID, err)
			continue
		}
		e.cache.Publish(ctx, world.ObjectChannel(spaceID), env)
	}
}

// PositionExecutor flushes avatar position batches to the cache tier only:
// the latest transform per user per space, plus one positions envelope per
// space for live subscribers. Positions never touch the durable store and
// the cache fails open, so Process cannot fail and positions never consume
// retry budget.
type PositionExecutor struct {
	cache Cache
}

func (e *PositionExecutor) Kind() world.OpKind { return world.OpPosition }

func (e *PositionExecutor) Process(ctx context.Context, ops []world.Operation) error {
	type spaceKey struct{ space, user string }

	latest := make(map[spaceKey]world.PositionUpdate, len(ops))
	order := make([]spaceKey, 0, len(ops))
	for _, op := range ops {
		u := *op.PositionUpdate
		key := spaceKey{space: u.SpaceID, user: u.UserID}
		if _, ok := latest[key]; !ok {
			order = append(order, key)
		}
		latest[key] = u
	}

	bySpace := make(map[string][]world.PositionUpdate)
	for _, key := range order {
		bySpace[key.space] = append(bySpace[key.space], latest[key])
	}

	for spaceID, updates := range bySpace {
		e.cache.SetPositions(ctx, spaceID, updates)
		env, err := world.NewEnvelope(world.EnvelopePositions, spaceID, map[string]any{
			"positions": updates,
		})
		if err != nil {
			logging.Warn("Skipping positions publish for space %s: %v", spaceID, err)
			continue
		}
		e.cache.Publish(ctx, world.PositionChannel(spaceID), env)
	}
	return nil
}

// ChatExecutor flushes chat batches: every message in enqueue order to the
// durable store in one multi-row insert, then into each space's capped cache
// history, then one chat envelope per space. Messages are never deduplicated;
// the store skips already-present message ids so retries stay idempotent.
type ChatExecutor struct {
	store Store
	cache Cache
}

func (e *ChatExecutor) Kind() world.OpKind { return world.OpChat }

func (e *ChatExecutor) Process(ctx context.Context, ops []world.Operation) error {
	messages := make([]world.ChatMessage, 0, len(ops))
	bySpace := make(map[string][]world.ChatMessage)
	for _, op := range ops {
		msg := op.ChatPost.Message
		messages = append(messages, msg)
		bySpace[msg.SpaceID] = append(bySpace[msg.SpaceID], msg)
	}

	if err := e.store.AppendChatMessages(ctx, messages); err != nil {
		return fmt.Errorf("appending chat batch: %w", err)
	}

	for spaceID, msgs := range bySpace {
		e.cache.AppendChatHistory(ctx, spaceID, msgs)
		env, err := world.NewEnvelope(world.EnvelopeChat, spaceID, map[string]any{
			"messages": msgs,
		})
		if err != nil {
			logging.Warn("Skipping chat publish for space %s: %v", spaceID, err)
			continue
		}
		e.cache.Publish(ctx, world.ChatChannel(spaceID), env)
	}
	return nil
}

// EventExecutor flushes analytics event batches straight to the durable
// store. Events have no cache presence and no live subscribers.
type EventExecutor struct {
	store Store
}

func (e *EventExecutor) Kind() world.OpKind { return world.OpEvent }

func (e *EventExecutor) Process(ctx context.Context, ops []world.Operation) error {
	events := make([]world.Event, 0, len(ops))
	for _, op := range ops {
		events = append(events, op.EventRecord.Event)
	}
	if err := e.store.AppendEvents(ctx, events); err != nil {
		return fmt.Errorf("appending event batch: %w", err)
	}
	return nil
}

// MetricExecutor folds a batch of raw metric samples into one MetricPoint
// per (name, space) pair before a single time-series write. Raw samples are
// never durable; only the count/sum/min/max aggregate survives the flush.
type MetricExecutor struct {
	store Store
}

func (e *MetricExecutor) Kind() world.OpKind { return world.OpMetric }

func (e *MetricExecutor) Process(ctx context.Context, ops []world.Operation) error {
	type seriesKey struct{ name, space string }

	agg := make(map[seriesKey]*world.MetricPoint, len(ops))
	order := make([]seriesKey, 0, len(ops))
	for _, op := range ops {
		s := *op.MetricSample
		key := seriesKey{name: s.Name, space: s.SpaceID}
		p, ok := agg[key]
		if !ok {
			agg[key] = &world.MetricPoint{
				Name:    s.Name,
				SpaceID: s.SpaceID,
				Count:   1,
				Sum:     s.Value,
				Min:     s.Value,
				Max:     s.Value,
			}
			order = append(order, key)
			continue
		}
		p.Count++
		p.Sum += s.Value
		if s.Value < p.Min {
			p.Min = s.Value
		}
		if s.Value > p.Max {
			p.Max = s.Value
		}
	}

	now := time.Now()
	points := make([]world.MetricPoint, 0, len(order))
	for _, key := range order {
		p := agg[key]
		p.Timestamp = now
		points = append(points, *p)
	}

	if err := e.store.AppendMetricPoints(ctx, points); err != nil {
		return fmt.Errorf("appending metric batch: %w", err)
	}
	return nil
}
