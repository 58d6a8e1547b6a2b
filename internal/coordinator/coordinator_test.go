package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/world"
)

// fakeStore implements Store in memory with call counting, so tests can
// tell cache hits from store fallbacks.
type fakeStore struct {
	mu sync.Mutex

	objects  map[string][]world.WorldObject
	sessions map[string]world.Session
	chat     []world.ChatMessage
	events   []world.Event
	metrics  []world.MetricPoint
	models   []world.UploadedModel
	visits   map[string]int64

	worldStateLoads int
	objectLists     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]world.WorldObject),
		sessions: make(map[string]world.Session),
		visits:   make(map[string]int64),
	}
}

func (s *fakeStore) ApplyObjectBatch(_ context.Context, writes []world.ObjectWrite, _ []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		s.objects[w.Object.SpaceID] = append(s.objects[w.Object.SpaceID], w.Object)
	}
	return nil
}

func (s *fakeStore) AppendChatMessages(_ context.Context, messages []world.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, messages...)
	return nil
}

func (s *fakeStore) AppendEvents(_ context.Context, events []world.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *fakeStore) AppendMetricPoints(_ context.Context, points []world.MetricPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, points...)
	return nil
}

func (s *fakeStore) LoadWorldState(_ context.Context, spaceID string) (*world.WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worldStateLoads++
	return &world.WorldState{
		SpaceID:  spaceID,
		Objects:  s.objects[spaceID],
		LoadedAt: time.Now(),
	}, nil
}

func (s *fakeStore) ListObjects(_ context.Context, spaceID string) ([]world.WorldObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objectLists++
	return s.objects[spaceID], nil
}

func (s *fakeStore) GetObject(_ context.Context, objectID string) (*world.WorldObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, objs := range s.objects {
		for _, obj := range objs {
			if obj.ObjectID == objectID {
				return &obj, nil
			}
		}
	}
	return nil, fmt.Errorf("object %s not found", objectID)
}

func (s *fakeStore) RecentChat(_ context.Context, _ string, _ int) ([]world.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat, nil
}

func (s *fakeStore) SoftDeleteChatMessage(_ context.Context, _ string) error { return nil }

func (s *fakeStore) GetSpace(_ context.Context, spaceID string) (*world.Space, error) {
	return &world.Space{SpaceID: spaceID}, nil
}

func (s *fakeStore) IncrementVisitorCount(_ context.Context, spaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[spaceID]++
	return nil
}

func (s *fakeStore) UpsertSession(_ context.Context, sess world.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
	return nil
}

func (s *fakeStore) DeactivateSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if ok {
		sess.IsActive = false
		s.sessions[sessionID] = sess
	}
	return nil
}

func (s *fakeStore) ActiveSessions(_ context.Context, spaceID string) ([]world.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.Session
	for _, sess := range s.sessions {
		if sess.SpaceID == spaceID && sess.IsActive {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertModel(_ context.Context, m world.UploadedModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, m)
	return nil
}

func (s *fakeStore) ListModels(_ context.Context, _ string) ([]world.UploadedModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = mr.Addr()
	cacheClient := cache.New(cacheCfg)
	t.Cleanup(func() { cacheClient.Close() })

	store := newFakeStore()
	batchCfg := batch.DefaultConfig()
	batchCfg.FlushInterval = 10 * time.Second // tests drive flushes explicitly

	coord, err := New(batchCfg, store, cacheClient)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { coord.Shutdown(context.Background()) })
	return coord, store
}

func TestLoadWorldStateWarmsAndHitsCache(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	store.objects["space-1"] = []world.WorldObject{{ObjectID: "obj-1", SpaceID: "space-1"}}

	first, err := coord.LoadWorldState(ctx, "space-1")
	if err != nil {
		t.Fatalf("LoadWorldState: %v", err)
	}
	if len(first.Objects) != 1 {
		t.Fatalf("expected 1 object in snapshot, got %d", len(first.Objects))
	}
	if store.worldStateLoads != 1 {
		t.Fatalf("expected 1 store load, got %d", store.worldStateLoads)
	}

	// Second read must be served from the warmed cache.
	second, err := coord.LoadWorldState(ctx, "space-1")
	if err != nil {
		t.Fatalf("LoadWorldState (cached): %v", err)
	}
	if store.worldStateLoads != 1 {
		t.Errorf("expected cache hit, store loaded %d times", store.worldStateLoads)
	}
	if second.SpaceID != "space-1" {
		t.Errorf("unexpected cached snapshot space: %s", second.SpaceID)
	}
}

func TestLoadWorldStateReadsScreenShareLive(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.LoadWorldState(ctx, "space-1"); err != nil {
		t.Fatalf("LoadWorldState: %v", err)
	}

	coord.SetScreenShare(ctx, "space-1", true)
	state, err := coord.LoadWorldState(ctx, "space-1")
	if err != nil {
		t.Fatalf("LoadWorldState: %v", err)
	}
	if !state.ActiveScreenShare {
		t.Error("expected cached snapshot to pick up live screen share flag")
	}
}

func TestEnqueueStampsChatIdentity(t *testing.T) {
	coord, store := newTestCoordinator(t)

	op := world.NewChatPost(world.ChatPost{Message: world.ChatMessage{
		SpaceID: "space-1", UserID: "u", Message: "hi",
	}})
	if err := coord.Enqueue(op); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	coord.FlushAll(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.chat) != 1 {
		t.Fatalf("expected 1 flushed message, got %d", len(store.chat))
	}
	if store.chat[0].MessageID == "" {
		t.Error("expected a server-assigned message id")
	}
	if store.chat[0].CreatedAt.IsZero() {
		t.Error("expected a server-assigned timestamp")
	}
}

func TestSpaceObjectsFallsBackToStore(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	store.objects["space-1"] = []world.WorldObject{{ObjectID: "obj-1", SpaceID: "space-1"}}

	objects, err := coord.SpaceObjects(ctx, "space-1")
	if err != nil {
		t.Fatalf("SpaceObjects: %v", err)
	}
	if len(objects) != 1 || store.objectLists != 1 {
		t.Fatalf("expected store fallback with 1 object, got %d objects, %d lists",
			len(objects), store.objectLists)
	}

	// The fallback warms the per-space hash, so the second read stays in
	// the cache.
	if _, err := coord.SpaceObjects(ctx, "space-1"); err != nil {
		t.Fatalf("SpaceObjects (cached): %v", err)
	}
	if store.objectLists != 1 {
		t.Errorf("expected cached read, store listed %d times", store.objectLists)
	}
}

func TestJoinAndLeaveSpace(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	session := world.Session{UserID: "u-1", Username: "alice", SpaceID: "space-1"}
	if err := coord.JoinSpace(ctx, session); err != nil {
		t.Fatalf("JoinSpace: %v", err)
	}

	sessions, err := coord.ActiveSessions(ctx, "space-1")
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Username != "alice" {
		t.Fatalf("expected alice present, got %+v", sessions)
	}
	if !sessions[0].IsActive {
		t.Error("expected session active after join")
	}
	if store.visits["space-1"] != 1 {
		t.Errorf("expected visitor count 1, got %d", store.visits["space-1"])
	}

	if err := coord.LeaveSpace(ctx, "space-1", sessions[0].SessionID); err != nil {
		t.Fatalf("LeaveSpace: %v", err)
	}
	remaining, err := coord.ActiveSessions(ctx, "space-1")
	if err != nil {
		t.Fatalf("ActiveSessions after leave: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no active sessions after leave, got %d", len(remaining))
	}
}

func TestCheckRateLimitPassthrough(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if res := coord.CheckRateLimit(ctx, "u-1", "chat", 3, time.Minute); !res.Allowed {
			t.Fatalf("request %d unexpectedly rejected", i)
		}
	}
	if res := coord.CheckRateLimit(ctx, "u-1", "chat", 3, time.Minute); res.Allowed {
		t.Error("expected 4th request in window to be rejected")
	}
}

func TestGetStatsCombinesTiers(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	if err := coord.Enqueue(world.NewMetricSample(world.MetricSample{Name: "fps", Value: 30})); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	coord.FlushAll(context.Background())

	stats := coord.GetStats()
	if stats.Batch.Processed != 1 {
		t.Errorf("expected 1 processed operation, got %d", stats.Batch.Processed)
	}
}
