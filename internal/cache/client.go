// Redis client wrapper implementing the fail-open cache contract.
//
// FAIL-OPEN SEMANTICS:
// No method on Client ever surfaces a backend failure to its caller. Reads
// return ErrMiss (and bump the miss/error counters) when Redis is unreachable;
// writes log and absorb the failure. Callers treat every miss identically:
// fall back to the durable store, never interpret absence as deletion.
//
// KEY LAYOUT:
//   - plaza:cache:<type>:<id>        typed KV entries with per-type TTLs
//   - plaza:hash:objects:<space>     all objects in one space as one hash
//   - plaza:hash:positions:<space>   avatar positions per space, short TTL
//   - plaza:hash:sessions:<space>    live sessions per space
//   - plaza:list:chat:<space>        bounded recent chat history
//   - plaza:screenshare:<space>      active screen-share flag
//   - plaza:ratelimit:<actor>:<action>  fixed-window counters
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// ErrMiss is the absent sentinel returned by every cache read that finds
// nothing, whether the key is missing, expired, or the backend is down.
// Callers must fall back to the durable store and must never treat a miss
// as "deleted".
var ErrMiss = errors.New("cache miss")

// Client wraps a Redis connection with typed TTLs, per-space aggregates,
// pub/sub fan-out, and fixed-window rate limiting. Safe for concurrent use.
//
// Counters are atomic so Stats can be scraped from monitoring paths without
// touching the connection.
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration

	// Performance metrics (atomic for lock-free updates)
	hitCount     int64
	missCount    int64
	errorCount   int64
	publishCount int64
}

// Stats holds cache performance metrics for monitoring and debugging cache
// effectiveness. Exposed through the daemon's stats endpoint.
type Stats struct {
	HitCount     int64   `json:"hit_count"`
	MissCount    int64   `json:"miss_count"`
	ErrorCount   int64   `json:"error_count"`
	PublishCount int64   `json:"publish_count"`
	HitRate      float64 `json:"hit_rate"`
}

// New creates a cache client and verifies connectivity once. A failed ping is
// logged but not fatal: the daemon starts degraded and the client recovers
// transparently when Redis returns.
func New(cfg *Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	c := &Client{rdb: rdb, opTimeout: cfg.OpTimeout}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Warn("Cache: Redis unreachable at %s, starting degraded: %v", cfg.Addr, err)
	} else {
		logging.Info("Cache: connected to Redis at %s", cfg.Addr)
	}

	return c
}

// Close releases the Redis connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// opContext derives a bounded context for one cache operation.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// failOpen records a backend failure and logs it at most once per call site
// concern. Every caller then proceeds as if the key were absent.
func (c *Client) failOpen(op string, err error) {
	atomic.AddInt64(&c.errorCount, 1)
	logging.Warn("Cache: %s failed open: %v", op, err)
}

func kvKey(entryType EntryType, id string) string {
	return fmt.Sprintf("plaza:cache:%s:%s", entryType, id)
}

func objectsKey(spaceID string) string   { return "plaza:hash:objects:" + spaceID }
func positionsKey(spaceID string) string { return "plaza:hash:positions:" + spaceID }
func sessionsKey(spaceID string) string  { return "plaza:hash:sessions:" + spaceID }
func chatKey(spaceID string) string      { return "plaza:list:chat:" + spaceID }
func shareKey(spaceID string) string     { return "plaza:screenshare:" + spaceID }

// Get reads a typed entry into dest, refreshing its TTL on hit (sliding
// expiry). Returns ErrMiss for absent keys and for any backend failure.
func (c *Client) Get(ctx context.Context, entryType EntryType, id string, dest any) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.GetEx(ctx, kvKey(entryType, id), TTLFor(entryType)).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&c.missCount, 1)
		return ErrMiss
	}
	if err != nil {
		atomic.AddInt64(&c.missCount, 1)
		c.failOpen("get "+string(entryType), err)
		return ErrMiss
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is as good as absent; drop it so the durable
		// store refill overwrites the bad value.
		atomic.AddInt64(&c.missCount, 1)
		c.Delete(ctx, entryType, id)
		return ErrMiss
	}

	atomic.AddInt64(&c.hitCount, 1)
	return nil
}

// Set stores a typed entry under its default TTL (or an explicit override).
// Backend failures are absorbed.
func (c *Client) Set(ctx context.Context, entryType EntryType, id string, value any, ttlOverride ...time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logging.Error("Cache: set %s/%s marshal failed: %v", entryType, id, err)
		return
	}

	ttl := TTLFor(entryType)
	if len(ttlOverride) > 0 && ttlOverride[0] > 0 {
		ttl = ttlOverride[0]
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.rdb.Set(ctx, kvKey(entryType, id), raw, ttl).Err(); err != nil {
		c.failOpen("set "+string(entryType), err)
	}
}

// Delete removes a typed entry. Absent keys and backend failures are both
// non-events.
func (c *Client) Delete(ctx context.Context, entryType EntryType, id string) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.rdb.Del(ctx, kvKey(entryType, id)).Err(); err != nil {
		c.failOpen("delete "+string(entryType), err)
	}
}

// SetObjects mirrors a set of world objects into the space's object hash,
// one field per object id, and refreshes the hash TTL. Called by the
// object-update executor after a successful durable write.
func (c *Client) SetObjects(ctx context.Context, spaceID string, objects []world.WorldObject) {
	if len(objects) == 0 {
		return
	}

	fields := make(map[string]any, len(objects))
	for _, obj := range objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			logging.Error("Cache: marshal object %s failed: %v", obj.ObjectID, err)
			continue
		}
		fields[obj.ObjectID] = raw
	}
	if len(fields) == 0 {
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := objectsKey(spaceID)
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, TTLFor(TypeObject))
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("set objects hash", err)
	}
}

// RemoveObjects drops object ids from the space's object hash after a
// durable delete so stale entries never outlive the row.
func (c *Client) RemoveObjects(ctx context.Context, spaceID string, objectIDs []string) {
	if len(objectIDs) == 0 {
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.rdb.HDel(ctx, objectsKey(spaceID), objectIDs...).Err(); err != nil {
		c.failOpen("remove objects", err)
	}
}

// GetObjects returns every cached object in a space, keyed by object id.
// An empty map with ErrMiss means the hash is absent or the backend is down;
// callers fall back to the durable store.
func (c *Client) GetObjects(ctx context.Context, spaceID string) (map[string]world.WorldObject, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.HGetAll(ctx, objectsKey(spaceID)).Result()
	if err != nil {
		atomic.AddInt64(&c.missCount, 1)
		c.failOpen("get objects hash", err)
		return nil, ErrMiss
	}
	if len(raw) == 0 {
		atomic.AddInt64(&c.missCount, 1)
		return nil, ErrMiss
	}

	objects := make(map[string]world.WorldObject, len(raw))
	for id, val := range raw {
		var obj world.WorldObject
		if err := json.Unmarshal([]byte(val), &obj); err != nil {
			logging.Warn("Cache: corrupt object entry %s/%s dropped: %v", spaceID, id, err)
			continue
		}
		objects[id] = obj
	}

	atomic.AddInt64(&c.hitCount, 1)
	return objects, nil
}

// SetPositions writes the latest avatar positions into the space's position
// hash under the short session TTL. Positions never touch the durable store,
// so this hash plus the position channel is their entire existence.
func (c *Client) SetPositions(ctx context.Context, spaceID string, updates []world.PositionUpdate) {
	if len(updates) == 0 {
		return
	}

	fields := make(map[string]any, len(updates))
	for _, u := range updates {
		raw, err := json.Marshal(u)
		if err != nil {
			logging.Error("Cache: marshal position for %s failed: %v", u.UserID, err)
			continue
		}
		fields[u.UserID] = raw
	}
	if len(fields) == 0 {
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := positionsKey(spaceID)
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, TTLFor(TypeSession))
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("set positions", err)
	}
}

// GetPositions returns the last known avatar positions for a space, keyed by
// user id.
func (c *Client) GetPositions(ctx context.Context, spaceID string) (map[string]world.PositionUpdate, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.HGetAll(ctx, positionsKey(spaceID)).Result()
	if err != nil {
		atomic.AddInt64(&c.missCount, 1)
		c.failOpen("get positions", err)
		return nil, ErrMiss
	}
	if len(raw) == 0 {
		atomic.AddInt64(&c.missCount, 1)
		return nil, ErrMiss
	}

	positions := make(map[string]world.PositionUpdate, len(raw))
	for userID, val := range raw {
		var u world.PositionUpdate
		if err := json.Unmarshal([]byte(val), &u); err != nil {
			continue
		}
		positions[userID] = u
	}

	atomic.AddInt64(&c.hitCount, 1)
	return positions, nil
}

// AppendChatHistory pushes new messages onto the space's recent-history list,
// trims it to ChatHistoryLimit (newest last), and refreshes the list TTL.
func (c *Client) AppendChatHistory(ctx context.Context, spaceID string, messages []world.ChatMessage) {
	if len(messages) == 0 {
		return
	}

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		raw, err := json.Marshal(msg)
		if err != nil {
			logging.Error("Cache: marshal chat message %s failed: %v", msg.MessageID, err)
			continue
		}
		values = append(values, raw)
	}
	if len(values) == 0 {
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := chatKey(spaceID)
	pipe := c.rdb.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -int64(ChatHistoryLimit), -1)
	pipe.Expire(ctx, key, TTLFor(TypeChatHistory))
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("append chat history", err)
	}
}

// GetChatHistory returns the cached recent chat window for a space, oldest
// first.
func (c *Client) GetChatHistory(ctx context.Context, spaceID string) ([]world.ChatMessage, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.LRange(ctx, chatKey(spaceID), 0, -1).Result()
	if err != nil {
		atomic.AddInt64(&c.missCount, 1)
		c.failOpen("get chat history", err)
		return nil, ErrMiss
	}
	if len(raw) == 0 {
		atomic.AddInt64(&c.missCount, 1)
		return nil, ErrMiss
	}

	messages := make([]world.ChatMessage, 0, len(raw))
	for _, val := range raw {
		var msg world.ChatMessage
		if err := json.Unmarshal([]byte(val), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	atomic.AddInt64(&c.hitCount, 1)
	return messages, nil
}

// SetScreenShare records whether a screen share is active in a space, with
// the world-state TTL so an orphaned flag cannot persist past reconnects.
func (c *Client) SetScreenShare(ctx context.Context, spaceID string, active bool) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if active {
		if err := c.rdb.Set(ctx, shareKey(spaceID), "1", TTLFor(TypeWorldState)).Err(); err != nil {
			c.failOpen("set screenshare", err)
		}
		return
	}
	if err := c.rdb.Del(ctx, shareKey(spaceID)).Err(); err != nil {
		c.failOpen("clear screenshare", err)
	}
}

// ScreenShareActive reports the screen-share flag; false on miss or outage.
func (c *Client) ScreenShareActive(ctx context.Context, spaceID string) bool {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	val, err := c.rdb.Get(ctx, shareKey(spaceID)).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.failOpen("get screenshare", err)
		return false
	}
	return val == "1"
}

// GetStats returns current cache performance metrics. Safe to call frequently
// from monitoring paths; counters are atomic reads only.
func (c *Client) GetStats() Stats {
	hits := atomic.LoadInt64(&c.hitCount)
	misses := atomic.LoadInt64(&c.missCount)
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100.0
	}

	return Stats{
		HitCount:     hits,
		MissCount:    misses,
		ErrorCount:   atomic.LoadInt64(&c.errorCount),
		PublishCount: atomic.LoadInt64(&c.publishCount),
		HitRate:      hitRate,
	}
}
