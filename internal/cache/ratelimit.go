// Fixed-window rate limiting backed by Redis INCR/EXPIRE.
//
// Producers (the transport layer) call CheckRateLimit before operations ever
// reach the batch scheduler, throttling noisy actors at the edge. The window
// key auto-expires, so an idle actor's budget resets without any sweeper.
package cache

import (
	"context"
	"fmt"
	"time"
)

// RateLimitResult reports one rate-limit decision.
type RateLimitResult struct {
	Allowed   bool          `json:"allowed"`
	Remaining int           `json:"remaining"`
	ResetIn   time.Duration `json:"resetIn"`
}

func rateLimitKey(actorID, action string) string {
	return fmt.Sprintf("plaza:ratelimit:%s:%s", actorID, action)
}

// CheckRateLimit counts one attempt for (actor, action) inside a fixed window
// and reports whether it is within budget. The first attempt in a window
// starts the expiry clock; attempt N is allowed iff N <= limit.
//
// Fails open: if Redis is unreachable the call is allowed, since dropping
// legitimate traffic on a cache outage would be worse than letting a noisy
// actor through until the cache recovers.
func (c *Client) CheckRateLimit(ctx context.Context, actorID, action string, limit int, window time.Duration) RateLimitResult {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	key := rateLimitKey(actorID, action)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.failOpen("rate limit incr", err)
		return RateLimitResult{Allowed: true, Remaining: limit, ResetIn: window}
	}

	if count == 1 {
		// First hit in this window starts the clock. If this EXPIRE is
		// lost the key would count forever, so a failed expire removes
		// the key instead of leaving an immortal counter.
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			c.failOpen("rate limit expire", err)
			c.rdb.Del(ctx, key)
			return RateLimitResult{Allowed: true, Remaining: limit, ResetIn: window}
		}
	}

	resetIn := window
	if ttl, err := c.rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		resetIn = ttl
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
