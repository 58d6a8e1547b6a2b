package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/plaza-dev/plaza/internal/world"
)

func testConfig() *Config {
	return &Config{
		BatchSize:     100,
		FlushInterval: 20 * time.Millisecond,
		MaxQueueSize:  10000,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
	}
}

func newTestScheduler(t *testing.T, cfg *Config, store Store, cache Cache) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg, NewExecutors(store, cache))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func waitFor(t *testing.T, timeout time.Duration, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func chatOp(id string) world.Operation {
	return world.NewChatPost(world.ChatPost{Message: world.ChatMessage{
		MessageID: id, SpaceID: "space-1", UserID: "u", Message: "hello",
	}})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "zero flush interval", mutate: func(c *Config) { c.FlushInterval = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "batch larger than queue", mutate: func(c *Config) { c.BatchSize = 20000 }, wantErr: true},
		{name: "excessive flush interval", mutate: func(c *Config) { c.FlushInterval = time.Minute }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSizeTriggerFlushesWithoutTimer(t *testing.T) {
	store := &fakeStore{}
	cfg := testConfig()
	cfg.BatchSize = 10
	cfg.FlushInterval = 10 * time.Second // timer must not be the trigger here
	s := newTestScheduler(t, cfg, store, newFakeCache())

	for i := 0; i < 10; i++ {
		if err := s.Enqueue(chatOp(fmt.Sprintf("m-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	waitFor(t, time.Second, "size-triggered flush", func() bool {
		return len(store.chatBatchSizes()) == 1
	})
	if sizes := store.chatBatchSizes(); sizes[0] != 10 {
		t.Errorf("expected a batch of 10, got %v", sizes)
	}
}

func TestTimerFlushesPartialBatch(t *testing.T) {
	store := &fakeStore{}
	s := newTestScheduler(t, testConfig(), store, newFakeCache())

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(chatOp(fmt.Sprintf("m-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	// Well under the batch size: only the interval timer can flush these.
	waitFor(t, time.Second, "timer-triggered flush", func() bool {
		return len(store.chatBatchSizes()) == 1
	})
	if sizes := store.chatBatchSizes(); sizes[0] != 3 {
		t.Errorf("expected a batch of 3, got %v", sizes)
	}
}

func TestFlushAllDrainsInBatchSizeChunks(t *testing.T) {
	store := &fakeStore{}
	cfg := testConfig()
	cfg.FlushInterval = 10 * time.Second // drive everything through FlushAll
	s := newTestScheduler(t, cfg, store, newFakeCache())

	for i := 0; i < 250; i++ {
		if err := s.Enqueue(chatOp(fmt.Sprintf("m-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	s.FlushAll(context.Background())

	sizes := store.chatBatchSizes()
	want := []int{100, 100, 50}
	if len(sizes) != len(want) {
		t.Fatalf("expected flush cycles %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("expected flush cycles %v, got %v", want, sizes)
		}
	}

	// FIFO within the kind: flatten and check enqueue order survived.
	i := 0
	for _, batch := range store.chatBatches {
		for _, msg := range batch {
			if want := fmt.Sprintf("m-%d", i); msg.MessageID != want {
				t.Fatalf("position %d: expected %s, got %s", i, want, msg.MessageID)
			}
			i++
		}
	}

	stats := s.GetStats()
	if stats.Processed != 250 {
		t.Errorf("expected 250 processed, got %d", stats.Processed)
	}
	if depth := stats.QueueDepths[string(world.OpChat)]; depth != 0 {
		t.Errorf("expected drained chat queue, got depth %d", depth)
	}
}

func TestRetryBoundAndDrop(t *testing.T) {
	store := &fakeStore{failNext: -1}
	cfg := testConfig()
	cfg.FlushInterval = 10 * time.Second
	cfg.MaxRetries = 3
	s := newTestScheduler(t, cfg, store, newFakeCache())

	if err := s.Enqueue(chatOp("doomed")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	s.FlushAll(context.Background())

	// Initial attempt plus exactly MaxRetries redeliveries.
	if got := store.callCount(); got != 4 {
		t.Errorf("expected 4 store attempts, got %d", got)
	}

	stats := s.GetStats()
	if stats.Failed != 1 {
		t.Errorf("expected 1 dropped operation, got %d", stats.Failed)
	}
	if stats.Retried != 3 {
		t.Errorf("expected 3 re-enqueues, got %d", stats.Retried)
	}
	if depth := stats.QueueDepths[string(world.OpChat)]; depth != 0 {
		t.Errorf("expected empty queue after drop, got depth %d", depth)
	}
}

func TestTransientFailureRecovers(t *testing.T) {
	store := &fakeStore{failNext: 2}
	cfg := testConfig()
	cfg.FlushInterval = 10 * time.Second
	s := newTestScheduler(t, cfg, store, newFakeCache())

	if err := s.Enqueue(chatOp("m-1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	s.FlushAll(context.Background())

	if got := store.callCount(); got != 3 {
		t.Errorf("expected 3 store attempts, got %d", got)
	}
	if len(store.chatBatches) != 1 {
		t.Fatalf("expected the message to land after retries, got %d batches", len(store.chatBatches))
	}

	stats := s.GetStats()
	if stats.Processed != 1 || stats.Failed != 0 {
		t.Errorf("expected 1 processed and 0 failed, got %d/%d", stats.Processed, stats.Failed)
	}
}

// blockingStore parks every event write until released, so tests can hold a
// flush in flight while they fill the queue behind it.
type blockingStore struct {
	fakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) AppendEvents(ctx context.Context, events []world.Event) error {
	s.entered <- struct{}{}
	<-s.release
	return s.fakeStore.AppendEvents(ctx, events)
}

func TestEnqueueRejectsWhenQueueFull(t *testing.T) {
	store := &blockingStore{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
	cfg := testConfig()
	cfg.BatchSize = 5
	cfg.MaxQueueSize = 10
	cfg.FlushInterval = 10 * time.Second
	s := newTestScheduler(t, cfg, store, newFakeCache())

	eventOp := func(id string) world.Operation {
		return world.NewEventRecord(world.EventRecord{Event: world.Event{
			EventID: id, SpaceID: "space-1", Name: "ping",
		}})
	}

	// Fill to the batch size: the 5th enqueue dispatches a flush that
	// parks inside the store.
	for i := 0; i < 5; i++ {
		if err := s.Enqueue(eventOp(fmt.Sprintf("e-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	<-store.entered

	// With the flush stuck, fill the queue to capacity.
	for i := 5; i < 15; i++ {
		if err := s.Enqueue(eventOp(fmt.Sprintf("e-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	err := s.Enqueue(eventOp("e-overflow"))
	var full *QueueFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected QueueFullError, got %v", err)
	}
	if full.Kind != world.OpEvent || full.Capacity != 10 {
		t.Errorf("unexpected rejection detail: %+v", full)
	}
	if stats := s.GetStats(); stats.Rejected != 1 {
		t.Errorf("expected 1 rejection, got %d", stats.Rejected)
	}

	close(store.release)
	s.FlushAll(context.Background())
	if stats := s.GetStats(); stats.Processed != 15 {
		t.Errorf("expected all 15 accepted events processed, got %d", stats.Processed)
	}
}

func TestEnqueueRejectsInvalidOperation(t *testing.T) {
	s := newTestScheduler(t, testConfig(), &fakeStore{}, newFakeCache())

	err := s.Enqueue(world.Operation{Kind: world.OpChat})
	if err == nil {
		t.Fatal("expected validation error for missing payload")
	}
	if stats := s.GetStats(); stats.Rejected != 1 {
		t.Errorf("expected 1 rejection, got %d", stats.Rejected)
	}
}

func TestKindsFlushIndependently(t *testing.T) {
	store := &fakeStore{failNext: -1} // chat writes always fail
	cache := newFakeCache()
	cfg := testConfig()
	cfg.FlushInterval = 10 * time.Second
	s := newTestScheduler(t, cfg, store, cache)

	if err := s.Enqueue(chatOp("m-1")); err != nil {
		t.Fatalf("Enqueue chat: %v", err)
	}
	if err := s.Enqueue(world.NewPositionUpdate(world.PositionUpdate{
		SpaceID: "space-1", UserID: "alice", Position: world.Vector3{X: 1},
	})); err != nil {
		t.Fatalf("Enqueue position: %v", err)
	}

	s.FlushAll(context.Background())

	// The dead store must not stop the cache-only position flush.
	if len(cache.positions["space-1"]) != 1 {
		t.Errorf("expected position flush to succeed, got %d updates", len(cache.positions["space-1"]))
	}
	stats := s.GetStats()
	if stats.Processed != 1 {
		t.Errorf("expected 1 processed (position), got %d", stats.Processed)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed (chat), got %d", stats.Failed)
	}
}

func TestSweeperRecoversUnscheduledQueue(t *testing.T) {
	store := &fakeStore{failNext: 1}
	cfg := testConfig()
	cfg.RetryDelay = 5 * time.Millisecond
	s := newTestScheduler(t, cfg, store, newFakeCache())
	s.Start()
	defer s.Shutdown(context.Background())

	if err := s.Enqueue(chatOp("m-1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// The first flush fails; timer plus sweeper must land the retry.
	waitFor(t, 2*time.Second, "retried flush to land", func() bool {
		return len(store.chatBatchSizes()) == 1
	})
}

func TestShutdownDrainsAndClosesAdmission(t *testing.T) {
	store := &fakeStore{}
	cfg := testConfig()
	cfg.FlushInterval = 10 * time.Second
	s := newTestScheduler(t, cfg, store, newFakeCache())
	s.Start()

	for i := 0; i < 7; i++ {
		if err := s.Enqueue(chatOp(fmt.Sprintf("m-%d", i))); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	s.Shutdown(context.Background())

	if stats := s.GetStats(); stats.Processed != 7 {
		t.Errorf("expected shutdown to drain 7 operations, got %d", stats.Processed)
	}
	if err := s.Enqueue(chatOp("late")); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("expected ErrSchedulerClosed after shutdown, got %v", err)
	}

	// Idempotent.
	s.Shutdown(context.Background())
}
