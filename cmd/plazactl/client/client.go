// Package client provides the HTTP API client for the plazactl CLI.
//
// This package implements the complete client layer for communicating with
// the plaza daemon REST API. It handles request/response serialization,
// error handling, retry logic, and structured logging for reliable
// operator workflows against a running daemon.
//
// API CLIENT ARCHITECTURE:
// The PlazaAPIClient wraps the Resty HTTP client with daemon-specific
// functionality:
//   - Connection Management: Timeout configuration and retry policies
//   - Request/Response Handling: JSON serialization and structured logging
//   - Identification: User-Agent headers for version compatibility tracking
//   - Fault Tolerance: Automatic retries on connection failures only
//
// SUPPORTED OPERATIONS:
//   - Daemon Health: Liveness, version, and uptime inspection
//   - Scheduler Stats: Batch queue depths, flush counters, and cache hit rates
//   - Flush Control: Synchronous drain of every write-behind queue
//   - Space Reads: World state snapshots, objects, chat windows, and presence
//
// All API methods return wrapped errors naming the daemon address so
// connection problems are immediately diagnosable from the CLI.
package client

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/plaza-dev/plaza/cmd/plazactl/config"
	"github.com/plaza-dev/plaza/cmd/plazactl/utils"
	"github.com/plaza-dev/plaza/internal/batch"
	"github.com/plaza-dev/plaza/internal/cache"
	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// HealthStatus mirrors the daemon's health endpoint response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// CoreStats mirrors the daemon's stats endpoint response: the batch
// scheduler counters and the cache tier counters at one point in time.
type CoreStats struct {
	Timestamp time.Time   `json:"timestamp"`
	Batch     batch.Stats `json:"batch"`
	Cache     cache.Stats `json:"cache"`
}

// SpaceObjects mirrors the daemon's space objects listing.
type SpaceObjects struct {
	SpaceID string              `json:"spaceId"`
	Objects []world.WorldObject `json:"objects"`
	Count   int                 `json:"count"`
}

// SpaceChat mirrors the daemon's recent chat window listing.
type SpaceChat struct {
	SpaceID  string              `json:"spaceId"`
	Messages []world.ChatMessage `json:"messages"`
	Count    int                 `json:"count"`
}

// SpaceSessions mirrors the daemon's live presence listing.
type SpaceSessions struct {
	SpaceID  string          `json:"spaceId"`
	Sessions []world.Session `json:"sessions"`
	Count    int             `json:"count"`
}

// PlazaAPIClient wraps the Resty HTTP client with daemon-specific
// configuration for reliable API communication. Provides a configured
// client with retry logic, structured logging, and proper timeout handling
// for all CLI operations.
type PlazaAPIClient struct {
	client  *resty.Client
	baseURL string
}

// NewPlazaAPIClient creates a new API client with Resty configured for
// CLI use: bounded timeouts, connection-error retries, JSON headers, and
// debug logging routed through the structured logging system.
func NewPlazaAPIClient(apiAddr string, timeout int) *PlazaAPIClient {
	client := resty.New()

	baseURL := fmt.Sprintf("http://%s/api/v1", apiAddr)

	// Route Resty's internal logging through our structured logging system
	client.SetLogger(utils.RestyLogger{})

	// Configure client with timeouts, headers, and retry logic
	client.
		SetTimeout(time.Duration(timeout)*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("plazactl/%s", config.Version))

	// Add retry mechanism with custom retry conditions
	client.
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only retry on connection errors, not HTTP errors
			return err != nil
		})

	// Custom request logging using structured logging
	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})

	// Custom response logging using structured logging
	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	// Custom error logging using structured logging
	client.OnError(func(req *resty.Request, err error) {
		logging.Debug("API request failed: %s %s - %v", req.Method, req.URL, err)
	})

	return &PlazaAPIClient{
		client:  client,
		baseURL: baseURL,
	}
}

// GetHealth fetches the daemon's health status including version and uptime.
func (api *PlazaAPIClient) GetHealth() (*HealthStatus, error) {
	var health HealthStatus

	resp, err := api.client.R().
		SetResult(&health).
		Get("/health")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &health, nil
}

// GetStats fetches the write-behind core's throughput counters: per-kind
// queue depths, processed/failed/retried/rejected totals, flush latency,
// and cache hit rates.
func (api *PlazaAPIClient) GetStats() (*CoreStats, error) {
	var stats CoreStats

	resp, err := api.client.R().
		SetResult(&stats).
		Get("/stats")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &stats, nil
}

// FlushAll asks the daemon to synchronously drain every batch queue to the
// durable store. Blocks until the daemon reports the drain complete.
func (api *PlazaAPIClient) FlushAll() error {
	resp, err := api.client.R().
		Post("/flush")

	if err != nil {
		return fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// GetWorldState fetches the coherent join snapshot for a space: active
// objects, models, the recent chat window, live sessions, and the screen
// share flag.
func (api *PlazaAPIClient) GetWorldState(spaceID string) (*world.WorldState, error) {
	var state world.WorldState

	resp, err := api.client.R().
		SetResult(&state).
		Get(fmt.Sprintf("/spaces/%s/state", spaceID))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &state, nil
}

// GetSpaceObjects fetches the active objects in a space.
func (api *PlazaAPIClient) GetSpaceObjects(spaceID string) (*SpaceObjects, error) {
	var objects SpaceObjects

	resp, err := api.client.R().
		SetResult(&objects).
		Get(fmt.Sprintf("/spaces/%s/objects", spaceID))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &objects, nil
}

// GetSpaceChat fetches the recent chat window for a space.
func (api *PlazaAPIClient) GetSpaceChat(spaceID string) (*SpaceChat, error) {
	var chat SpaceChat

	resp, err := api.client.R().
		SetResult(&chat).
		Get(fmt.Sprintf("/spaces/%s/chat", spaceID))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &chat, nil
}

// GetSpaceSessions fetches live presence for a space.
func (api *PlazaAPIClient) GetSpaceSessions(spaceID string) (*SpaceSessions, error) {
	var sessions SpaceSessions

	resp, err := api.client.R().
		SetResult(&sessions).
		Get(fmt.Sprintf("/spaces/%s/sessions", spaceID))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &sessions, nil
}

// CreateAPIClient builds an API client from the global CLI configuration.
func CreateAPIClient() *PlazaAPIClient {
	return NewPlazaAPIClient(config.Global.APIAddr, config.Global.Timeout)
}
