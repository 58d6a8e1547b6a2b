package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plaza-dev/plaza/internal/logging"
	"github.com/plaza-dev/plaza/internal/world"
)

// queueState tracks where a single kind's queue sits in its flush lifecycle.
// Transitions are driven by enqueues, timer fires, flush completions, and the
// sweeper; every transition happens under the queue's mutex.
type queueState int

const (
	// stateIdle means the queue is empty with nothing scheduled.
	stateIdle queueState = iota

	// stateAccumulating means the queue holds operations but no flush is
	// scheduled or running yet. Normally transient: enqueue arms a timer
	// immediately, and the sweeper re-arms any queue left in this state.
	stateAccumulating

	// stateFlushScheduled means a flush timer is armed for this queue.
	stateFlushScheduled

	// stateFlushing means a flush for this queue is executing. At most one
	// flush per queue runs at a time, which is what keeps same-kind
	// operations strictly FIFO.
	stateFlushing
)

// QueueFullError is returned by Enqueue when a queue has reached its
// admission cap. Producers surface this as backpressure to callers rather
// than letting memory grow without bound during a store outage.
type QueueFullError struct {
	Kind     world.OpKind
	Depth    int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("%s queue full: %d of %d operations", e.Kind, e.Depth, e.Capacity)
}

// ErrSchedulerClosed is returned by Enqueue after Shutdown has begun.
var ErrSchedulerClosed = fmt.Errorf("batch scheduler is shut down")

// opQueue is one kind's FIFO queue plus its flush state machine. The slice
// front (index 0) is the oldest operation; failed batches are re-enqueued at
// the front so retried operations keep their original order.
type opQueue struct {
	kind world.OpKind

	mu    sync.Mutex
	cond  *sync.Cond // signaled when a flush completes
	ops   []world.Operation
	state queueState
	timer *time.Timer

	// resumeAt gates flushes after a failure: the queue is not flushed
	// again before this instant, giving a struggling store time to recover.
	resumeAt time.Time
}

func (q *opQueue) cancelTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Stats is a point-in-time snapshot of scheduler throughput counters and
// queue depths, surfaced through the stats API for operational visibility.
type Stats struct {
	Processed uint64 `json:"processed"` // Operations flushed successfully
	Failed    uint64 `json:"failed"`    // Operations dropped after exhausting retries
	Retried   uint64 `json:"retried"`   // Operation re-enqueues caused by flush failures
	Rejected  uint64 `json:"rejected"`  // Enqueues refused by admission control or validation
	Flushes   uint64 `json:"flushes"`   // Completed flush executions, including failed ones

	QueueDepths map[string]int `json:"queue_depths"` // Pending operations per kind

	AverageFlushLatency time.Duration `json:"average_flush_latency"` // Mean executor time per flush
}

// Scheduler owns one FIFO queue per operation kind and drives the
// write-behind flush cycle: accumulate until the batch size or the flush
// interval is reached, hand the batch to the kind's executor, and retry
// failed batches a bounded number of times before dropping them.
//
// There is no ordering guarantee across kinds; within a kind, operations are
// applied in enqueue order because each queue runs at most one flush at a
// time and failed batches return to the front of their queue.
type Scheduler struct {
	cfg       *Config
	executors map[world.OpKind]Executor
	queues    map[world.OpKind]*opQueue

	processed atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	rejected  atomic.Uint64
	flushes   atomic.Uint64
	flushNs   atomic.Int64

	closed  atomic.Bool
	stopCh  chan struct{}
	sweepWG sync.WaitGroup
	flushWG sync.WaitGroup
}

// NewScheduler builds a scheduler from a validated config and one executor
// per operation kind. Call Start to begin the sweeper; until then enqueues
// are accepted and flushed on size and timer triggers only.
func NewScheduler(cfg *Config, executors map[world.OpKind]Executor) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	queues := make(map[world.OpKind]*opQueue, len(world.Kinds()))
	for _, kind := range world.Kinds() {
		if _, ok := executors[kind]; !ok {
			return nil, fmt.Errorf("no executor registered for %s operations", kind)
		}
		q := &opQueue{kind: kind}
		q.cond = sync.NewCond(&q.mu)
		queues[kind] = q
	}

	return &Scheduler{
		cfg:       cfg,
		executors: executors,
		queues:    queues,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start launches the sweeper, a ticker at half the flush interval that
// re-arms any non-empty queue left without a scheduled flush. The sweeper is
// the safety net that keeps the interval trigger honest even if a timer is
// lost to a race between a flush completion and new enqueues.
func (s *Scheduler) Start() {
	s.sweepWG.Add(1)
	go s.sweep()
	logging.Info("Batch scheduler started: size=%d interval=%v capacity=%d",
		s.cfg.BatchSize, s.cfg.FlushInterval, s.cfg.MaxQueueSize)
}

// Enqueue admits one operation into its kind's queue and returns
// immediately. Admission stamps the scheduler metadata, enforces the queue
// capacity, and arms the appropriate flush trigger: an immediate flush when
// the queue reaches the batch size, a timer otherwise.
//
// Returns QueueFullError when the queue is at capacity and a validation
// error when the operation is malformed; both count as rejections in the
// stats. A nil return means the operation will reach an executor at least
// once unless the process dies first.
func (s *Scheduler) Enqueue(op world.Operation) error {
	if s.closed.Load() {
		return ErrSchedulerClosed
	}
	if err := op.Validate(); err != nil {
		s.rejected.Add(1)
		return err
	}

	q := s.queues[op.Kind]
	op.EnqueuedAt = time.Now()
	op.Attempt = 0

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) >= s.cfg.MaxQueueSize {
		s.rejected.Add(1)
		return &QueueFullError{Kind: op.Kind, Depth: len(q.ops), Capacity: s.cfg.MaxQueueSize}
	}

	q.ops = append(q.ops, op)
	s.armLocked(q)
	return nil
}

// armLocked decides the next flush trigger for a queue. Caller holds q.mu.
func (s *Scheduler) armLocked(q *opQueue) {
	switch q.state {
	case stateFlushing:
		// The completing flush re-arms the queue.
		return

	case stateFlushScheduled:
		if len(q.ops) >= s.cfg.BatchSize && !time.Now().Before(q.resumeAt) {
			q.cancelTimerLocked()
			s.dispatchLocked(q)
		}

	case stateIdle, stateAccumulating:
		if len(q.ops) == 0 {
			q.state = stateIdle
			return
		}
		if len(q.ops) >= s.cfg.BatchSize && !time.Now().Before(q.resumeAt) {
			s.dispatchLocked(q)
			return
		}
		delay := s.cfg.FlushInterval
		if wait := time.Until(q.resumeAt); wait > delay {
			delay = wait
		}
		q.timer = time.AfterFunc(delay, func() { s.timerFired(q) })
		q.state = stateFlushScheduled
	}
}

// dispatchLocked moves a queue into the Flushing state and launches the
// flush asynchronously. Caller holds q.mu.
func (s *Scheduler) dispatchLocked(q *opQueue) {
	q.state = stateFlushing
	s.flushWG.Add(1)
	go func() {
		defer s.flushWG.Done()
		s.flush(context.Background(), q, false)
	}()
}

// timerFired is the flush timer callback. It is a no-op unless the queue is
// still waiting on this timer: a size-triggered flush or the sweeper may
// have beaten it.
func (s *Scheduler) timerFired(q *opQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.timer = nil
	if q.state != stateFlushScheduled {
		return
	}
	if len(q.ops) == 0 {
		q.state = stateIdle
		return
	}
	s.dispatchLocked(q)
}

// flush executes one batch for a queue: take up to BatchSize operations from
// the front, hand them to the kind's executor, and on failure re-enqueue the
// still-retryable survivors at the front with their attempt counts bumped.
// When ignoreDelay is set (the FlushAll path) the retry pause is skipped.
//
// The queue must be in stateFlushing on entry; flush leaves it re-armed for
// whatever remains.
func (s *Scheduler) flush(ctx context.Context, q *opQueue, ignoreDelay bool) {
	q.mu.Lock()
	n := min(len(q.ops), s.cfg.BatchSize)
	ops := make([]world.Operation, n)
	copy(ops, q.ops[:n])
	q.ops = q.ops[n:]
	q.mu.Unlock()

	if n > 0 {
		start := time.Now()
		err := s.executors[q.kind].Process(ctx, ops)
		s.flushes.Add(1)
		s.flushNs.Add(time.Since(start).Nanoseconds())

		if err != nil {
			s.requeue(q, ops, ignoreDelay, err)
		} else {
			s.processed.Add(uint64(n))
			logging.Debug("Flushed %d %s operations in %v", n, q.kind, time.Since(start))
		}
	}

	q.mu.Lock()
	q.state = stateAccumulating
	s.armLocked(q)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// requeue handles a failed batch: operations that have not exhausted their
// retries go back to the front of the queue in their original order, the
// rest are dropped and counted as failed.
func (s *Scheduler) requeue(q *opQueue, ops []world.Operation, ignoreDelay bool, cause error) {
	kept := make([]world.Operation, 0, len(ops))
	dropped := 0
	for i := range ops {
		ops[i].Attempt++
		if ops[i].Attempt <= s.cfg.MaxRetries {
			kept = append(kept, ops[i])
		} else {
			dropped++
		}
	}

	s.retried.Add(uint64(len(kept)))
	if dropped > 0 {
		s.failed.Add(uint64(dropped))
		logging.Error("Dropped %d %s operations after %d attempts: %v",
			dropped, q.kind, s.cfg.MaxRetries+1, cause)
	} else {
		logging.Warn("Flush of %d %s operations failed, will retry: %v", len(kept), q.kind, cause)
	}

	q.mu.Lock()
	q.ops = append(kept, q.ops...)
	if !ignoreDelay {
		q.resumeAt = time.Now().Add(s.cfg.RetryDelay)
	}
	q.mu.Unlock()
}

// sweep periodically re-arms queues that hold operations but have no flush
// scheduled. This covers operations enqueued while a flush was in flight and
// queues whose retry pause has elapsed.
func (s *Scheduler) sweep() {
	defer s.sweepWG.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for _, q := range s.queues {
				q.mu.Lock()
				if q.state == stateIdle || q.state == stateAccumulating {
					s.armLocked(q)
				}
				q.mu.Unlock()
			}
		}
	}
}

// FlushAll synchronously drains every queue, waiting out any in-flight
// flushes and ignoring retry pauses. Used as the shutdown barrier and by the
// operator API to force pending writes to disk.
//
// Termination is guaranteed even against a dead store: every failed pass
// bumps attempt counts, so operations either land or age out of the retry
// budget.
func (s *Scheduler) FlushAll(ctx context.Context) {
	for _, kind := range world.Kinds() {
		q := s.queues[kind]
		for {
			if ctx.Err() != nil {
				return
			}

			q.mu.Lock()
			for q.state == stateFlushing {
				q.cond.Wait()
			}
			if len(q.ops) == 0 {
				q.cancelTimerLocked()
				q.state = stateIdle
				q.mu.Unlock()
				break
			}
			q.cancelTimerLocked()
			q.state = stateFlushing
			q.mu.Unlock()

			s.flush(ctx, q, true)
		}
	}
}

// Shutdown stops admission, halts the sweeper, and drains every queue
// through FlushAll so no accepted operation is silently discarded. Safe to
// call once; subsequent enqueues return ErrSchedulerClosed.
func (s *Scheduler) Shutdown(ctx context.Context) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	logging.Info("Batch scheduler shutting down, draining queues")
	close(s.stopCh)
	s.sweepWG.Wait()
	s.flushWG.Wait()
	s.FlushAll(ctx)

	stats := s.GetStats()
	logging.Success("Batch scheduler drained: %d processed, %d failed, %d rejected",
		stats.Processed, stats.Failed, stats.Rejected)
}

// GetStats returns a snapshot of throughput counters and current queue
// depths.
func (s *Scheduler) GetStats() Stats {
	depths := make(map[string]int, len(s.queues))
	for kind, q := range s.queues {
		q.mu.Lock()
		depths[string(kind)] = len(q.ops)
		q.mu.Unlock()
	}

	stats := Stats{
		Processed:   s.processed.Load(),
		Failed:      s.failed.Load(),
		Retried:     s.retried.Load(),
		Rejected:    s.rejected.Load(),
		Flushes:     s.flushes.Load(),
		QueueDepths: depths,
	}
	if stats.Flushes > 0 {
		stats.AverageFlushLatency = time.Duration(s.flushNs.Load() / int64(stats.Flushes))
	}
	return stats
}
