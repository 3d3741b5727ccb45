// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

// Package schedule provides the deduplicating work queue the sync engine
// runs on: uniquely named work items, conflict policies for duplicate
// names, device-condition constraints, delays and periodic execution.
package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pkazmin/go-media-cache/internal/logger"
)

var (
	// ErrWorkKept is returned by Enqueue when [PolicyKeep] dropped the new
	// work in favor of existing work under the same name.
	ErrWorkKept = errors.New("work kept: existing work with same name")

	// ErrInvalidWork is returned by Enqueue for work without a name or body.
	ErrInvalidWork = errors.New("invalid work")

	// ErrQueueClosed is returned by Enqueue after Shutdown.
	ErrQueueClosed = errors.New("work queue is closed")
)

// constraintPollInterval is how often a waiting work item re-checks its
// device constraints.
const constraintPollInterval = 50 * time.Millisecond

// retryBackoff is the pause between attempts of failed one-shot work.
const retryBackoff = time.Second

// Work is one schedulable unit.
type Work struct {
	// Name deduplicates work: at most one item per name is pending or
	// running at any moment.
	Name string

	// Policy resolves a name collision with existing work.
	Policy Policy

	// Delay postpones the first start.
	Delay time.Duration

	// Interval, when non-zero, makes the work periodic: it re-runs every
	// Interval until cancelled. Periodic work ignores Retries.
	Interval time.Duration

	// Constraints must hold before each start.
	Constraints Constraints

	// Retries is how many times failed one-shot work is re-attempted.
	Retries int

	// Run is the work body. It must honor ctx cancellation.
	Run func(ctx context.Context) error

	// Discarded, when set, is called once if the work is dropped without Run
	// ever being invoked: superseded while chained behind a running item,
	// cancelled before starting, or orphaned by queue shutdown.
	Discarded func()
}

// discard signals work that will never run.
func discard(w *Work) {
	if w != nil && w.Discarded != nil {
		w.Discarded()
	}
}

type workState int

const (
	statePending workState = iota
	stateRunning
)

type workItem struct {
	work   Work
	state  workState
	cancel context.CancelFunc

	// next is work appended behind this item by PolicyAppendOrReplace.
	next *Work
}

// Queue runs uniquely named work in the background.
type Queue struct {
	logger *logger.Logger
	device *DeviceState

	baseCtx   context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu     sync.Mutex
	items  map[string]*workItem
	closed bool
}

// NewQueue constructs an empty queue reading constraints from device.
func NewQueue(device *DeviceState, log *logger.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		logger:    log,
		device:    device,
		baseCtx:   ctx,
		cancelAll: cancel,
		items:     make(map[string]*workItem),
	}
}

// Enqueue submits work under its unique name, resolving collisions by the
// work's policy. ErrWorkKept means existing work won and the new work will
// never run.
func (q *Queue) Enqueue(w Work) error {
	if w.Name == "" || w.Run == nil {
		return ErrInvalidWork
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	existing := q.items[w.Name]
	if existing == nil {
		q.startLocked(w)
		return nil
	}

	switch w.Policy {
	case PolicyKeep:
		q.logger.Debug().
			Str("func", "Queue.Enqueue").
			Str("name", w.Name).
			Str("policy", w.Policy.String()).
			Msg("dropping work: existing work kept")
		return ErrWorkKept

	case PolicyReplace:
		q.cancelLocked(existing)
		q.startLocked(w)
		return nil

	case PolicyAppendOrReplace:
		if existing.state == statePending {
			q.cancelLocked(existing)
			q.startLocked(w)
			return nil
		}
		// running: chain behind it; a later append supersedes an earlier
		// one that has not started yet
		discard(existing.next)
		existing.next = &w
		return nil

	default:
		return ErrInvalidWork
	}
}

// Cancel stops the pending or running work under name, if any, along with
// any work appended behind it.
func (q *Queue) Cancel(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item := q.items[name]; item != nil {
		q.cancelLocked(item)
	}
}

// CancelPrefix stops every pending or running work whose name starts with
// prefix, along with any work appended behind it. Lets a caller preempt a
// whole group of per-target syncs before invalidating their cache partition.
func (q *Queue) CancelPrefix(prefix string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for name, item := range q.items {
		if strings.HasPrefix(name, prefix) {
			q.cancelLocked(item)
		}
	}
}

// cancelLocked cancels an item and drops its appended successor so the chain
// does not restart after the cancellation. Caller holds q.mu.
func (q *Queue) cancelLocked(item *workItem) {
	if item.next != nil {
		discard(item.next)
		item.next = nil
	}
	item.cancel()
}

// Shutdown cancels everything and waits for the workers to exit, bounded
// by ctx.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancelAll()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startLocked registers the item and launches its runner. Caller holds q.mu.
func (q *Queue) startLocked(w Work) {
	ctx, cancel := context.WithCancel(q.baseCtx)
	item := &workItem{work: w, state: statePending, cancel: cancel}
	q.items[w.Name] = item

	q.wg.Add(1)
	go q.run(ctx, item)
}

func (q *Queue) run(ctx context.Context, item *workItem) {
	defer q.wg.Done()
	defer q.finish(item)

	if item.work.Delay > 0 {
		if !sleep(ctx, item.work.Delay) {
			discard(&item.work)
			return
		}
	}

	if item.work.Interval > 0 {
		q.runPeriodic(ctx, item)
		return
	}

	if !q.awaitConstraints(ctx, item.work.Constraints) {
		discard(&item.work)
		return
	}
	q.setRunning(item)

	q.attempt(ctx, item)
}

// attempt runs one-shot work with its bounded retries.
func (q *Queue) attempt(ctx context.Context, item *workItem) {
	for try := 0; ; try++ {
		err := item.work.Run(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		q.logger.Warn().
			Err(err).
			Str("func", "Queue.attempt").
			Str("name", item.work.Name).
			Int("try", try+1).
			Msg("work failed")

		if try >= item.work.Retries {
			return
		}
		if !sleep(ctx, retryBackoff) {
			return
		}
	}
}

func (q *Queue) runPeriodic(ctx context.Context, item *workItem) {
	for {
		if !sleep(ctx, item.work.Interval) {
			return
		}
		if !q.awaitConstraints(ctx, item.work.Constraints) {
			return
		}
		q.setRunning(item)

		if err := item.work.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn().
				Err(err).
				Str("func", "Queue.runPeriodic").
				Str("name", item.work.Name).
				Msg("periodic work failed")
		}
	}
}

// finish removes the item from the registry (unless it was already replaced)
// and starts any appended work.
func (q *Queue) finish(item *workItem) {
	q.mu.Lock()
	if q.items[item.work.Name] == item {
		delete(q.items, item.work.Name)
	}
	next := item.next
	closed := q.closed
	q.mu.Unlock()

	item.cancel()

	if next == nil {
		return
	}
	if closed {
		discard(next)
		return
	}
	if err := q.Enqueue(*next); err != nil {
		discard(next)
		if !errors.Is(err, ErrWorkKept) {
			q.logger.Warn().
				Err(err).
				Str("func", "Queue.finish").
				Str("name", next.Name).
				Msg("failed to start appended work")
		}
	}
}

func (q *Queue) setRunning(item *workItem) {
	q.mu.Lock()
	item.state = stateRunning
	q.mu.Unlock()
}

// awaitConstraints polls the device state until the constraints hold.
// Returns false when ctx ends the wait.
func (q *Queue) awaitConstraints(ctx context.Context, c Constraints) bool {
	if c.satisfiedBy(q.device.snapshot()) {
		return true
	}

	ticker := time.NewTicker(constraintPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if c.satisfiedBy(q.device.snapshot()) {
				return true
			}
		}
	}
}

// sleep waits d, returning false when ctx expires first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
