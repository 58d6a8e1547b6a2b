// Package batch implements the write-behind batching core: per-kind FIFO
// queues that absorb high-frequency world mutations and flush them to the
// durable store and cache tier in grouped multi-row writes.
//
// Producers enqueue operations and return immediately; a flush fires when a
// queue reaches the configured batch size or when the flush interval elapses,
// whichever comes first. Failed flushes are retried a bounded number of times
// with the batch re-enqueued at the front of its queue so FIFO order within a
// kind is preserved.
package batch

import (
	"fmt"
	"time"
)

// Config holds all tuning parameters for the batch scheduler. Defines the
// size and timer flush triggers, queue admission capacity, and the bounded
// retry policy applied when a flush fails.
//
// Essential for tuning write-behind behavior based on deployment load
// patterns. The defaults balance write amplification against staleness:
// larger batches mean fewer transactions but a wider loss window on crash.
type Config struct {
	// Flush triggers
	BatchSize     int           `json:"batch_size" mapstructure:"batch_size"`         // Flush when a queue reaches this many operations
	FlushInterval time.Duration `json:"flush_interval" mapstructure:"flush_interval"` // Flush a non-empty queue after this long regardless of size

	// Admission control
	MaxQueueSize int `json:"max_queue_size" mapstructure:"max_queue_size"` // Reject enqueues when a queue holds this many operations

	// Retry policy for failed flushes
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"` // Additional attempts per operation after the first failure
	RetryDelay time.Duration `json:"retry_delay" mapstructure:"retry_delay"` // Pause before a failed queue is flushed again
}

// DefaultConfig returns a Config instance with production-ready default
// values. A hundred operations or a hundred milliseconds, whichever comes
// first, keeps the durable store roughly one tenth of a second behind the
// live cache tier under sustained load.
//
// Essential for providing known-good defaults that work without tuning:
// the 10,000-operation admission cap bounds memory during store outages and
// turns unbounded queue growth into explicit producer-visible rejections.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:     100,                    // Caps multi-row statement size per flush
		FlushInterval: 100 * time.Millisecond, // Staleness bound for trickle traffic
		MaxQueueSize:  10000,                  // Backpressure threshold during store outages
		MaxRetries:    3,                      // Bounded redelivery before a batch is dropped
		RetryDelay:    time.Second,            // Give a struggling store room to recover
	}
}

// Validate performs validation of all scheduler configuration parameters to
// catch nonsensical settings before the scheduler starts rather than as
// confusing runtime behavior.
//
// Critical for preventing configurations that deadlock or thrash: a batch
// size above the queue capacity would make size-triggered flushes
// unreachable, and a zero flush interval would spin the sweeper.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %v", c.FlushInterval)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max queue size must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative, got %v", c.RetryDelay)
	}

	// Sanity checks for reasonable values
	if c.BatchSize > c.MaxQueueSize {
		return fmt.Errorf("batch size %d exceeds max queue size %d", c.BatchSize, c.MaxQueueSize)
	}
	if c.MaxQueueSize > 1000000 {
		return fmt.Errorf("max queue size too large (max 1000000), got %d", c.MaxQueueSize)
	}
	if c.FlushInterval > 10*time.Second {
		return fmt.Errorf("flush interval too large (max 10s), got %v", c.FlushInterval)
	}

	return nil
}

// SweepInterval returns the sweeper tick period: half the flush interval, so
// a queue whose timer was lost to a race is still flushed within one and a
// half flush intervals of its oldest operation.
func (c *Config) SweepInterval() time.Duration {
	return c.FlushInterval / 2
}
