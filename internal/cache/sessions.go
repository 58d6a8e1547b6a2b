// Session presence tracking in the cache tier.
//
// One hash per space holds every live session under the short session TTL;
// the durable store keeps the full session record for analytics. Presence
// reads tolerate cache outages by falling back to the store's active-session
// query via the usual ErrMiss path.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// TrackSession records a live session in its space's presence hash and as a
// typed KV entry for direct lookup. Refreshing on every position heartbeat
// keeps the TTL sliding while the connection lives.
func (c *Client) TrackSession(ctx context.Context, session world.Session) {
	raw, err := json.Marshal(session)
	if err != nil {
		logging.Error("Cache: marshal session %s failed: %v", session.SessionID, err)
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := sessionsKey(session.SpaceID)
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, session.SessionID, raw)
	pipe.Expire(ctx, key, TTLFor(TypeSession))
	pipe.Set(ctx, kvKey(TypeSession, session.SessionID), raw, TTLFor(TypeSession))
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("track session", err)
	}
}

// EndSession removes a session from presence immediately on disconnect
// rather than waiting for TTL expiry.
func (c *Client) EndSession(ctx context.Context, spaceID, sessionID string) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	pipe := c.rdb.Pipeline()
	pipe.HDel(ctx, sessionsKey(spaceID), sessionID)
	pipe.Del(ctx, kvKey(TypeSession, sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("end session", err)
	}
}

// ActiveSessions returns the live sessions for a space from the presence
// hash. ErrMiss means the cache cannot answer; callers fall back to the
// durable store's active-session query.
func (c *Client) ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.rdb.HGetAll(ctx, sessionsKey(spaceID)).Result()
	if err != nil {
		atomic.AddInt64(&c.missCount, 1)
		c.failOpen("active sessions", err)
		return nil, ErrMiss
	}
	if len(raw) == 0 {
		atomic.AddInt64(&c.missCount, 1)
		return nil, ErrMiss
	}

	sessions := make([]world.Session, 0, len(raw))
	for id, val := range raw {
		var s world.Session
		if err := json.Unmarshal([]byte(val), &s); err != nil {
			logging.Warn("Cache: corrupt session entry %s/%s dropped: %v", spaceID, id, err)
			continue
		}
		sessions = append(sessions, s)
	}

	atomic.AddInt64(&c.hitCount, 1)
	return sessions, nil
}
