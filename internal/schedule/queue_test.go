// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/go-media-cache/internal/logger"
)

func newTestQueue(t *testing.T) (*Queue, *DeviceState) {
	t.Helper()

	device := NewDeviceState()
	q := NewQueue(device, logger.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = q.Shutdown(ctx)
	})

	return q, device
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestEnqueue_InvalidWork(t *testing.T) {
	q, _ := newTestQueue(t)

	assert.ErrorIs(t, q.Enqueue(Work{Run: func(context.Context) error { return nil }}), ErrInvalidWork)
	assert.ErrorIs(t, q.Enqueue(Work{Name: "no-body"}), ErrInvalidWork)
}

func TestEnqueue_RunsWork(t *testing.T) {
	q, _ := newTestQueue(t)

	var ran atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name: "once",
		Run: func(context.Context) error {
			ran.Store(true)
			return nil
		},
	}))

	waitFor(t, ran.Load, "work never ran")
}

func TestEnqueue_PolicyKeepDropsDuplicate(t *testing.T) {
	q, _ := newTestQueue(t)

	release := make(chan struct{})
	var runs atomic.Int32

	first := Work{
		Name:   "dedup",
		Policy: PolicyKeep,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}
	require.NoError(t, q.Enqueue(first))

	waitFor(t, func() bool { return runs.Load() == 1 }, "first work never started")

	duplicate := first
	assert.ErrorIs(t, q.Enqueue(duplicate), ErrWorkKept)

	close(release)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "kept duplicate must never run")
}

func TestEnqueue_PolicyReplaceCancelsRunning(t *testing.T) {
	q, _ := newTestQueue(t)

	firstCancelled := make(chan struct{})
	var replacementRan atomic.Bool

	require.NoError(t, q.Enqueue(Work{
		Name:   "replace-me",
		Policy: PolicyReplace,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(firstCancelled)
			return ctx.Err()
		},
	}))

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, q.Enqueue(Work{
		Name:   "replace-me",
		Policy: PolicyReplace,
		Run: func(context.Context) error {
			replacementRan.Store(true)
			return nil
		},
	}))

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("replaced work was not cancelled")
	}

	waitFor(t, replacementRan.Load, "replacement never ran")
}

func TestEnqueue_PolicyAppendOrReplaceChainsBehindRunning(t *testing.T) {
	q, _ := newTestQueue(t)

	release := make(chan struct{})
	var order []string
	done := make(chan struct{})

	require.NoError(t, q.Enqueue(Work{
		Name:   "chain",
		Policy: PolicyAppendOrReplace,
		Run: func(ctx context.Context) error {
			<-release
			order = append(order, "first")
			return nil
		},
	}))

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, q.Enqueue(Work{
		Name:   "chain",
		Policy: PolicyAppendOrReplace,
		Run: func(context.Context) error {
			order = append(order, "second")
			close(done)
			return nil
		},
	}))

	// the running item keeps going; the new one waits behind it
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("appended work never ran")
	}
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEnqueue_PolicyAppendOrReplaceReplacesPending(t *testing.T) {
	q, _ := newTestQueue(t)

	var firstRan, secondRan atomic.Bool

	// long delay keeps the first item pending
	require.NoError(t, q.Enqueue(Work{
		Name:   "pending",
		Policy: PolicyAppendOrReplace,
		Delay:  time.Hour,
		Run: func(context.Context) error {
			firstRan.Store(true)
			return nil
		},
	}))

	require.NoError(t, q.Enqueue(Work{
		Name:   "pending",
		Policy: PolicyAppendOrReplace,
		Run: func(context.Context) error {
			secondRan.Store(true)
			return nil
		},
	}))

	waitFor(t, secondRan.Load, "replacing work never ran")
	assert.False(t, firstRan.Load(), "replaced pending work must not run")
}

func TestEnqueue_AppendOrReplaceDiscardsSupersededChain(t *testing.T) {
	q, _ := newTestQueue(t)

	release := make(chan struct{})
	require.NoError(t, q.Enqueue(Work{
		Name:   "chain",
		Policy: PolicyAppendOrReplace,
		Run: func(ctx context.Context) error {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}))

	time.Sleep(50 * time.Millisecond)

	var discarded, secondRan, thirdRan atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name:      "chain",
		Policy:    PolicyAppendOrReplace,
		Run:       func(context.Context) error { secondRan.Store(true); return nil },
		Discarded: func() { discarded.Store(true) },
	}))
	require.NoError(t, q.Enqueue(Work{
		Name:   "chain",
		Policy: PolicyAppendOrReplace,
		Run:    func(context.Context) error { thirdRan.Store(true); return nil },
	}))

	assert.True(t, discarded.Load(), "superseded chained work was not discarded")

	close(release)
	waitFor(t, thirdRan.Load, "latest appended work never ran")
	assert.False(t, secondRan.Load(), "superseded work must never run")
}

func TestCancel_DiscardsPendingAndChainedWork(t *testing.T) {
	q, _ := newTestQueue(t)

	started := make(chan struct{})
	require.NoError(t, q.Enqueue(Work{
		Name:   "doomed",
		Policy: PolicyAppendOrReplace,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	<-started

	var chainDiscarded atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name:      "doomed",
		Policy:    PolicyAppendOrReplace,
		Run:       func(context.Context) error { return nil },
		Discarded: func() { chainDiscarded.Store(true) },
	}))

	var pendingDiscarded atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name:      "parked",
		Delay:     time.Hour,
		Run:       func(context.Context) error { return nil },
		Discarded: func() { pendingDiscarded.Store(true) },
	}))

	q.Cancel("doomed")
	q.Cancel("parked")

	assert.True(t, chainDiscarded.Load(), "cancelling running work must drop its chained successor")
	waitFor(t, pendingDiscarded.Load, "cancelled pending work was not discarded")
}

func TestCancelPrefix_StopsMatchingWork(t *testing.T) {
	q, _ := newTestQueue(t)

	cancelled := make(chan string, 2)
	blocking := func(name string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			<-ctx.Done()
			cancelled <- name
			return ctx.Err()
		}
	}

	require.NoError(t, q.Enqueue(Work{Name: "search_cloud_1", Run: blocking("search_cloud_1")}))
	require.NoError(t, q.Enqueue(Work{Name: "search_cloud_2", Run: blocking("search_cloud_2")}))

	var otherCancelled atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name: "media_cloud",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			otherCancelled.Store(true)
			return ctx.Err()
		},
	}))

	time.Sleep(50 * time.Millisecond)
	q.CancelPrefix("search_cloud")

	waitFor(t, func() bool { return len(cancelled) == 2 }, "prefixed work was not cancelled")
	assert.False(t, otherCancelled.Load(), "work outside the prefix must keep running")
}

func TestConstraints_GateExecution(t *testing.T) {
	q, device := newTestQueue(t)
	device.SetIdle(false)

	var ran atomic.Bool
	require.NoError(t, q.Enqueue(Work{
		Name:        "gated",
		Constraints: Constraints{RequireIdle: true},
		Run: func(context.Context) error {
			ran.Store(true)
			return nil
		},
	}))

	time.Sleep(150 * time.Millisecond)
	assert.False(t, ran.Load(), "work ran before its constraints held")

	device.SetIdle(true)
	waitFor(t, ran.Load, "work never ran after constraints were satisfied")
}

func TestAttempt_RetriesFailedWork(t *testing.T) {
	q, _ := newTestQueue(t)

	var tries atomic.Int32
	require.NoError(t, q.Enqueue(Work{
		Name:    "flaky",
		Retries: 2,
		Run: func(context.Context) error {
			if tries.Add(1) < 3 {
				return assert.AnError
			}
			return nil
		},
	}))

	waitFor(t, func() bool { return tries.Load() == 3 }, "work was not retried to success")
}

func TestRunPeriodic_RepeatsUntilCancelled(t *testing.T) {
	q, _ := newTestQueue(t)

	var runs atomic.Int32
	require.NoError(t, q.Enqueue(Work{
		Name:     "periodic",
		Interval: 30 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	waitFor(t, func() bool { return runs.Load() >= 3 }, "periodic work did not repeat")

	q.Cancel("periodic")
	time.Sleep(100 * time.Millisecond)
	after := runs.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "periodic work kept running after cancel")
}

func TestShutdown_RefusesNewWork(t *testing.T) {
	device := NewDeviceState()
	q := NewQueue(device, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	err := q.Enqueue(Work{Name: "late", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestShutdown_CancelsRunningWork(t *testing.T) {
	device := NewDeviceState()
	q := NewQueue(device, logger.Nop())

	started := make(chan struct{})
	require.NoError(t, q.Enqueue(Work{
		Name: "long",
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))
}
