// Pub/sub fan-out over Redis channels.
//
// DELIVERY CONTRACT:
// At-least-once to currently connected subscribers, no persistence of missed
// messages. A subscriber that connects after a publish does not see it;
// durable catch-up comes from a world-state load against the store on
// (re)connect. Publish failures follow the package's fail-open rule: logged
// and counted, never surfaced to the executor that triggered them.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// Publish sends an envelope to a channel. Fire-and-forget: a failed publish
// costs subscribers one notification, which the next flush or a snapshot
// load supersedes.
func (c *Client) Publish(ctx context.Context, channel string, env world.Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		logging.Error("Cache: marshal envelope for %s failed: %v", channel, err)
		return
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		c.failOpen("publish "+channel, err)
		return
	}
	atomic.AddInt64(&c.publishCount, 1)
}

// Subscription is a live pub/sub stream of decoded envelopes. Close it to
// release the underlying Redis subscription.
type Subscription struct {
	envelopes chan world.Envelope
	cancel    context.CancelFunc
	closer    func() error
}

// Envelopes returns the stream of decoded envelopes. The channel closes when
// the subscription is closed or the connection drops.
func (s *Subscription) Envelopes() <-chan world.Envelope {
	return s.envelopes
}

// Close terminates the subscription and its decode goroutine.
func (s *Subscription) Close() error {
	s.cancel()
	return s.closer()
}

// Subscribe opens a subscription on one or more channels and decodes each
// message into a world.Envelope. Malformed messages are dropped with a
// warning rather than killing the stream.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := c.rdb.Subscribe(subCtx, channels...)

	sub := &Subscription{
		envelopes: make(chan world.Envelope, 64),
		cancel:    cancel,
		closer:    pubsub.Close,
	}

	go func() {
		defer close(sub.envelopes)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env world.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logging.Warn("Cache: dropping malformed envelope on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case sub.envelopes <- env:
				case <-subCtx.Done():
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return sub
}
