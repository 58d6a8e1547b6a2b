package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/coordinator"
	"github.com/plaza-dev/plaza/internal/world"
)

// fakeCore implements Core in memory for handler tests.
type fakeCore struct {
	enqueued   []world.Operation
	enqueueErr error

	worldState *world.WorldState
	objects    []world.WorldObject
	chat       []world.ChatMessage
	sessions   []world.Session

	joined []world.Session
	left   []string

	rateLimited bool
	flushed     bool
	screenShare bool
}

func (f *fakeCore) Enqueue(op world.Operation) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, op)
	return nil
}

func (f *fakeCore) LoadWorldState(_ context.Context, spaceID string) (*world.WorldState, error) {
	if f.worldState != nil {
		return f.worldState, nil
	}
	return &world.WorldState{SpaceID: spaceID}, nil
}

func (f *fakeCore) SpaceObjects(_ context.Context, _ string) ([]world.WorldObject, error) {
	return f.objects, nil
}

func (f *fakeCore) RecentChat(_ context.Context, _ string) ([]world.ChatMessage, error) {
	return f.chat, nil
}

func (f *fakeCore) ActiveSessions(_ context.Context, _ string) ([]world.Session, error) {
	return f.sessions, nil
}

func (f *fakeCore) JoinSpace(_ context.Context, session world.Session) error {
	f.joined = append(f.joined, session)
	return nil
}

func (f *fakeCore) LeaveSpace(_ context.Context, _, sessionID string) error {
	f.left = append(f.left, sessionID)
	return nil
}

func (f *fakeCore) SetScreenShare(_ context.Context, _ string, active bool) {
	f.screenShare = active
}

func (f *fakeCore) RegisterModel(_ context.Context, _ world.UploadedModel) error { return nil }

func (f *fakeCore) CheckRateLimit(_ context.Context, _, _ string, limit int, _ time.Duration) cache.RateLimitResult {
	if f.rateLimited {
		return cache.RateLimitResult{Allowed: false, Remaining: 0, ResetIn: 30 * time.Second}
	}
	return cache.RateLimitResult{Allowed: true, Remaining: limit - 1}
}

func (f *fakeCore) GetStats() coordinator.Stats { return coordinator.Stats{} }

func (f *fakeCore) FlushAll(_ context.Context) { f.flushed = true }

func postOperation(t *testing.T, core Core, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/spaces/:id/operations", HandleEnqueue(core, 10, time.Minute))

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", "/spaces/space-1/operations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleEnqueue_Accepted tests the happy admission path
func TestHandleEnqueue_Accepted(t *testing.T) {
	core := &fakeCore{}

	w := postOperation(t, core, OperationRequest{
		Kind:    world.OpChat,
		ActorID: "user-1",
		ChatPost: &world.ChatPost{Message: world.ChatMessage{
			UserID: "user-1", Username: "alice", Message: "hello",
		}},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusAccepted, w.Body.String())
	}
	if len(core.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued operation, got %d", len(core.enqueued))
	}
	// The space id must come from the URL, not the payload.
	if got := core.enqueued[0].SpaceID(); got != "space-1" {
		t.Errorf("operation space = %q, want space-1", got)
	}
}

// TestHandleEnqueue_RateLimited tests the 429 rate limit path
func TestHandleEnqueue_RateLimited(t *testing.T) {
	core := &fakeCore{rateLimited: true}

	w := postOperation(t, core, OperationRequest{
		Kind:     world.OpChat,
		ActorID:  "user-1",
		ChatPost: &world.ChatPost{Message: world.ChatMessage{UserID: "user-1", Message: "spam"}},
	})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rate limited response")
	}
	if len(core.enqueued) != 0 {
		t.Error("rate limited request must not reach the scheduler")
	}
}

// TestHandleEnqueue_QueueFull tests backpressure surfacing as 429
func TestHandleEnqueue_QueueFull(t *testing.T) {
	core := &fakeCore{enqueueErr: &batch.QueueFullError{
		Kind: world.OpChat, Depth: 10000, Capacity: 10000,
	}}

	w := postOperation(t, core, OperationRequest{
		Kind:     world.OpChat,
		ActorID:  "user-1",
		ChatPost: &world.ChatPost{Message: world.ChatMessage{UserID: "user-1", Message: "hi"}},
	})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

// TestHandleEnqueue_BadRequest tests malformed payload rejection
func TestHandleEnqueue_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "missing kind", body: map[string]any{"actorId": "u"}},
		{name: "unknown kind", body: map[string]any{"kind": "teleport"}},
		{name: "kind without payload", body: map[string]any{"kind": "chat"}},
		{name: "payload kind mismatch", body: map[string]any{
			"kind":         "position",
			"metricSample": map[string]any{"name": "fps", "value": 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &fakeCore{}
			w := postOperation(t, core, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if len(core.enqueued) != 0 {
				t.Error("malformed request must not reach the scheduler")
			}
		})
	}
}
