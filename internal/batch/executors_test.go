package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/plaza-dev/plaza/internal/world"
)

// fakeStore records every batch write and can be primed to fail. Shared by
// the executor and scheduler tests.
type fakeStore struct {
	mu sync.Mutex

	objectBatches [][]world.ObjectWrite
	deleteBatches [][]string
	chatBatches   [][]world.ChatMessage
	eventBatches  [][]world.Event
	metricBatches [][]world.MetricPoint

	calls    int
	failNext int // fail this many calls before succeeding; -1 fails forever
}

var errStoreDown = errors.New("store unavailable")

func (s *fakeStore) failCall() error {
	s.calls++
	if s.failNext == -1 || s.calls <= s.failNext {
		return errStoreDown
	}
	return nil
}

func (s *fakeStore) ApplyObjectBatch(_ context.Context, writes []world.ObjectWrite, deletes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCall(); err != nil {
		return err
	}
	s.objectBatches = append(s.objectBatches, writes)
	s.deleteBatches = append(s.deleteBatches, deletes)
	return nil
}

func (s *fakeStore) AppendChatMessages(_ context.Context, messages []world.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCall(); err != nil {
		return err
	}
	s.chatBatches = append(s.chatBatches, messages)
	return nil
}

func (s *fakeStore) AppendEvents(_ context.Context, events []world.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCall(); err != nil {
		return err
	}
	s.eventBatches = append(s.eventBatches, events)
	return nil
}

func (s *fakeStore) AppendMetricPoints(_ context.Context, points []world.MetricPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCall(); err != nil {
		return err
	}
	s.metricBatches = append(s.metricBatches, points)
	return nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) chatBatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, 0, len(s.chatBatches))
	for _, b := range s.chatBatches {
		sizes = append(sizes, len(b))
	}
	return sizes
}

// fakeCache records mirror writes and publishes. All methods succeed, like
// the real cache tier's fail-open behavior.
type fakeCache struct {
	mu sync.Mutex

	objects   map[string][]world.WorldObject
	removed   map[string][]string
	positions map[string][]world.PositionUpdate
	chat      map[string][]world.ChatMessage
	published map[string][]world.Envelope
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		objects:   make(map[string][]world.WorldObject),
		removed:   make(map[string][]string),
		positions: make(map[string][]world.PositionUpdate),
		chat:      make(map[string][]world.ChatMessage),
		published: make(map[string][]world.Envelope),
	}
}

func (c *fakeCache) SetObjects(_ context.Context, spaceID string, objects []world.WorldObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[spaceID] = append(c.objects[spaceID], objects...)
}

func (c *fakeCache) RemoveObjects(_ context.Context, spaceID string, objectIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed[spaceID] = append(c.removed[spaceID], objectIDs...)
}

func (c *fakeCache) SetPositions(_ context.Context, spaceID string, updates []world.PositionUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[spaceID] = append(c.positions[spaceID], updates...)
}

func (c *fakeCache) AppendChatHistory(_ context.Context, spaceID string, messages []world.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat[spaceID] = append(c.chat[spaceID], messages...)
}

func (c *fakeCache) Publish(_ context.Context, channel string, env world.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[channel] = append(c.published[channel], env)
}

func (c *fakeCache) publishCount(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published[channel])
}

func objOp(spaceID, objectID string, x float64) world.Operation {
	return world.NewObjectUpdate(world.ObjectUpdate{
		Action: "move",
		Object: world.WorldObject{
			ObjectID: objectID,
			SpaceID:  spaceID,
			Name:     "chair",
			Type:     "furniture",
			Position: world.Vector3{X: x},
			OwnerID:  "user-1",
		},
	})
}

func TestObjectExecutorCollapsesToLastWrite(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	exec := &ObjectExecutor{store: store, cache: cache}

	// Three rapid moves of the same object: only the final position may
	// reach the store, but all three count as interactions.
	ops := []world.Operation{
		objOp("space-1", "obj-1", 0),
		objOp("space-1", "obj-1", 1),
		objOp("space-1", "obj-1", 2),
	}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.objectBatches) != 1 {
		t.Fatalf("expected 1 store write, got %d", len(store.objectBatches))
	}
	writes := store.objectBatches[0]
	if len(writes) != 1 {
		t.Fatalf("expected 1 object write, got %d", len(writes))
	}
	if got := writes[0].Object.Position.X; got != 2 {
		t.Errorf("expected final position x=2, got %v", got)
	}
	if writes[0].InteractionDelta != 3 {
		t.Errorf("expected interaction delta 3, got %d", writes[0].InteractionDelta)
	}

	if len(cache.objects["space-1"]) != 1 {
		t.Errorf("expected 1 cached object, got %d", len(cache.objects["space-1"]))
	}
	if got := cache.publishCount(world.ObjectChannel("space-1")); got != 1 {
		t.Errorf("expected 1 publish on object channel, got %d", got)
	}
}

func TestObjectExecutorDeleteSupersedesUpdate(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	exec := &ObjectExecutor{store: store, cache: cache}

	del := objOp("space-1", "obj-1", 5)
	del.ObjectUpdate.Action = "delete"
	del.ObjectUpdate.Deleted = true

	ops := []world.Operation{objOp("space-1", "obj-1", 1), del}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.objectBatches[0]) != 0 {
		t.Errorf("expected no upserts, got %d", len(store.objectBatches[0]))
	}
	if got := store.deleteBatches[0]; len(got) != 1 || got[0] != "obj-1" {
		t.Errorf("expected delete of obj-1, got %v", got)
	}
	if got := cache.removed["space-1"]; len(got) != 1 || got[0] != "obj-1" {
		t.Errorf("expected cache removal of obj-1, got %v", got)
	}
}

func TestObjectExecutorUpdateSupersedesDelete(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	exec := &ObjectExecutor{store: store, cache: cache}

	del := objOp("space-1", "obj-1", 0)
	del.ObjectUpdate.Deleted = true

	ops := []world.Operation{del, objOp("space-1", "obj-1", 7)}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.deleteBatches[0]) != 0 {
		t.Errorf("expected no deletes, got %v", store.deleteBatches[0])
	}
	if len(store.objectBatches[0]) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.objectBatches[0]))
	}
	if got := store.objectBatches[0][0].Object.Position.X; got != 7 {
		t.Errorf("expected resurrected position x=7, got %v", got)
	}
}

func TestObjectExecutorPropagatesStoreFailure(t *testing.T) {
	store := &fakeStore{failNext: -1}
	cache := newFakeCache()
	exec := &ObjectExecutor{store: store, cache: cache}

	err := exec.Process(context.Background(), []world.Operation{objOp("space-1", "obj-1", 1)})
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
	if len(cache.objects["space-1"]) != 0 {
		t.Error("cache must not be updated when the store write fails")
	}
}

func TestPositionExecutorKeepsLatestPerUser(t *testing.T) {
	cache := newFakeCache()
	exec := &PositionExecutor{cache: cache}

	pos := func(user string, x float64) world.Operation {
		return world.NewPositionUpdate(world.PositionUpdate{
			SpaceID:  "space-1",
			UserID:   user,
			Position: world.Vector3{X: x},
		})
	}

	ops := []world.Operation{pos("alice", 1), pos("bob", 1), pos("alice", 2), pos("alice", 3)}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	updates := cache.positions["space-1"]
	if len(updates) != 2 {
		t.Fatalf("expected 2 deduplicated updates, got %d", len(updates))
	}
	byUser := make(map[string]float64, len(updates))
	for _, u := range updates {
		byUser[u.UserID] = u.Position.X
	}
	if byUser["alice"] != 3 {
		t.Errorf("expected alice at x=3, got %v", byUser["alice"])
	}
	if byUser["bob"] != 1 {
		t.Errorf("expected bob at x=1, got %v", byUser["bob"])
	}
	if got := cache.publishCount(world.PositionChannel("space-1")); got != 1 {
		t.Errorf("expected 1 publish on position channel, got %d", got)
	}
}

func TestChatExecutorPreservesOrderAcrossSpaces(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	exec := &ChatExecutor{store: store, cache: cache}

	msg := func(id, space string) world.Operation {
		return world.NewChatPost(world.ChatPost{Message: world.ChatMessage{
			MessageID: id, SpaceID: space, UserID: "u", Message: "hi",
		}})
	}

	ops := []world.Operation{msg("m1", "a"), msg("m2", "b"), msg("m3", "a")}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.chatBatches) != 1 || len(store.chatBatches[0]) != 3 {
		t.Fatalf("expected one batch of 3 messages, got %v", store.chatBatchSizes())
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got := store.chatBatches[0][i].MessageID; got != want {
			t.Errorf("message %d: expected %s, got %s", i, want, got)
		}
	}
	if len(cache.chat["a"]) != 2 || len(cache.chat["b"]) != 1 {
		t.Errorf("expected per-space history 2/1, got %d/%d", len(cache.chat["a"]), len(cache.chat["b"]))
	}
}

func TestMetricExecutorAggregatesPerSeries(t *testing.T) {
	store := &fakeStore{}
	exec := &MetricExecutor{store: store}

	sample := func(name string, v float64) world.Operation {
		return world.NewMetricSample(world.MetricSample{Name: name, SpaceID: "space-1", Value: v})
	}

	ops := []world.Operation{sample("fps", 30), sample("fps", 60), sample("fps", 45), sample("latency", 12)}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.metricBatches) != 1 {
		t.Fatalf("expected 1 metric write, got %d", len(store.metricBatches))
	}
	points := store.metricBatches[0]
	if len(points) != 2 {
		t.Fatalf("expected 2 aggregated series, got %d", len(points))
	}

	fps := points[0]
	if fps.Name != "fps" {
		t.Fatalf("expected fps series first, got %s", fps.Name)
	}
	if fps.Count != 3 || fps.Sum != 135 || fps.Min != 30 || fps.Max != 60 {
		t.Errorf("unexpected fps aggregate: count=%d sum=%v min=%v max=%v",
			fps.Count, fps.Sum, fps.Min, fps.Max)
	}
	if fps.Timestamp.IsZero() {
		t.Error("expected aggregate timestamp to be stamped")
	}
}

func TestEventExecutorWritesBatch(t *testing.T) {
	store := &fakeStore{}
	exec := &EventExecutor{store: store}

	ops := []world.Operation{
		world.NewEventRecord(world.EventRecord{Event: world.Event{EventID: "e1", SpaceID: "s", Name: "user_joined"}}),
		world.NewEventRecord(world.EventRecord{Event: world.Event{EventID: "e2", SpaceID: "s", Name: "object_placed"}}),
	}
	if err := exec.Process(context.Background(), ops); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(store.eventBatches) != 1 || len(store.eventBatches[0]) != 2 {
		t.Fatalf("expected one batch of 2 events, got %v", store.eventBatches)
	}
}
