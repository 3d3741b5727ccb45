// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

// Package tracker counts syncs in flight so that UI-facing callers can wait
// for the cache to settle without coupling to individual workers.
package tracker

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

// Handle identifies one tracked sync. The zero Handle is invalid.
type Handle struct {
	domain models.Domain
	source models.SyncSource
	id     uuid.UUID
}

// Domain returns the sync domain the handle was issued for.
func (h Handle) Domain() models.Domain { return h.domain }

// Source returns the source role the handle was issued for.
func (h Handle) Source() models.SyncSource { return h.source }

type entry struct {
	domain models.Domain
	source models.SyncSource
	done   chan struct{}
}

// Tracker registers syncs when they are scheduled and releases them when
// their first meaningful progress (or terminal failure) is reported.
// Completion is idempotent: schedulers mark a sync complete on enqueue
// failure and workers mark it complete again on page arrival, whichever
// happens, the waiters are released exactly once.
type Tracker struct {
	logger *logger.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]*entry
}

// New constructs an empty tracker.
func New(log *logger.Logger) *Tracker {
	return &Tracker{
		logger:   log,
		inflight: make(map[uuid.UUID]*entry),
	}
}

// BeginTracking registers a new in-flight sync of one domain and source role
// and returns its handle.
func (t *Tracker) BeginTracking(domain models.Domain, source models.SyncSource) Handle {
	h := Handle{domain: domain, source: source, id: uuid.New()}

	t.mu.Lock()
	t.inflight[h.id] = &entry{domain: domain, source: source, done: make(chan struct{})}
	t.mu.Unlock()

	t.logger.Debug().
		Str("func", "Tracker.BeginTracking").
		Str("domain", string(domain)).
		Str("source", source.String()).
		Str("handle", h.id.String()).
		Msg("sync registered")

	return h
}

// Complete releases the waiters of one tracked sync. Calling Complete more
// than once, or with a handle that was never issued, is a no-op.
func (t *Tracker) Complete(h Handle) {
	t.mu.Lock()
	e, ok := t.inflight[h.id]
	if ok {
		delete(t.inflight, h.id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	close(e.done)

	t.logger.Debug().
		Str("func", "Tracker.Complete").
		Str("domain", string(h.domain)).
		Str("handle", h.id.String()).
		Msg("sync completed")
}

// InFlight returns the number of currently tracked syncs.
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// AwaitAll blocks until every sync of the given domain and source role that
// was in flight at the moment of the call has completed, or until ctx is
// done. Syncs of other domains or roles, and syncs registered after the
// call, are not waited for. A context timeout returns ctx.Err() and leaves
// the outstanding syncs running.
func (t *Tracker) AwaitAll(ctx context.Context, domain models.Domain, source models.SyncSource) error {
	t.mu.Lock()
	snapshot := make([]chan struct{}, 0, len(t.inflight))
	for _, e := range t.inflight {
		if e.domain == domain && e.source == source {
			snapshot = append(snapshot, e.done)
		}
	}
	t.mu.Unlock()

	return await(ctx, snapshot)
}

// AwaitIdle blocks until every sync that was in flight at the moment of the
// call, across all domains, has completed, or until ctx is done.
func (t *Tracker) AwaitIdle(ctx context.Context) error {
	t.mu.Lock()
	snapshot := make([]chan struct{}, 0, len(t.inflight))
	for _, e := range t.inflight {
		snapshot = append(snapshot, e.done)
	}
	t.mu.Unlock()

	return await(ctx, snapshot)
}

func await(ctx context.Context, snapshot []chan struct{}) error {
	for _, done := range snapshot {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
