// Package cache provides the Redis-backed shadow cache and notification bus
// for plaza world state. This is explicitly not the system of record: the
// durable store stays authoritative, and every operation here fails open so
// a cache outage degrades latency, never correctness.
package cache

import (
	"fmt"
	"time"

	"github.com/plaza-dev/plaza/internal/validate"
)

// EntryType names a cached entity family. Each family carries its own default
// TTL tuned to how quickly its data goes stale relative to the durable store.
type EntryType string

const (
	TypeObject      EntryType = "object"
	TypeUser        EntryType = "user"
	TypeModel       EntryType = "model"
	TypeSession     EntryType = "session"
	TypeWorldState  EntryType = "worldState"
	TypeChatHistory EntryType = "chatHistory"
	TypeStatistics  EntryType = "statistics"
)

// defaultTTLs maps entry types to their default expiry. Long-lived assets
// (models) can sit for a day; presence data (sessions) must vanish minutes
// after the last heartbeat.
var defaultTTLs = map[EntryType]time.Duration{
	TypeObject:      time.Hour,
	TypeUser:        30 * time.Minute,
	TypeModel:       24 * time.Hour,
	TypeSession:     5 * time.Minute,
	TypeWorldState:  10 * time.Minute,
	TypeChatHistory: 30 * time.Minute,
	TypeStatistics:  5 * time.Minute,
}

// TTLFor returns the default TTL for an entry type, falling back to the
// world-state TTL for unknown types so nothing is cached forever by accident.
func TTLFor(entryType EntryType) time.Duration {
	if ttl, ok := defaultTTLs[entryType]; ok {
		return ttl
	}
	return defaultTTLs[TypeWorldState]
}

// ChatHistoryLimit bounds the recent-chat list mirrored per space. Older
// messages remain in the durable store only.
const ChatHistoryLimit = 100

// Config holds connection parameters for the cache store.
type Config struct {
	// Addr is the Redis host:port
	Addr string `json:"addr"`

	// Password for AUTH; empty for unauthenticated deployments
	Password string `json:"password"`

	// DB selects the Redis logical database
	DB int `json:"db"`

	// OpTimeout bounds each individual cache operation. Kept short so a
	// slow cache cannot stall a flush cycle.
	OpTimeout time.Duration `json:"op_timeout"`
}

// DefaultConfig returns production-ready cache settings for a local Redis.
func DefaultConfig() *Config {
	return &Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		OpTimeout: 2 * time.Second,
	}
}

// Validate checks cache configuration before the client is constructed.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.Addr, "cache address"); err != nil {
		return err
	}
	if c.DB < 0 {
		return fmt.Errorf("cache db must be non-negative, got %d", c.DB)
	}
	if err := validate.ValidatePositiveTimeout(c.OpTimeout, "cache op timeout"); err != nil {
		return err
	}
	return nil
}
