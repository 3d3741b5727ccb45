// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

// Package notify carries cache-change notifications from the sync workers
// to whatever is rendering the cache. Paths are hierarchical: subscribing
// callers compare prefixes to decide whether a change concerns them.
package notify

import (
	"strings"
	"sync"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

// Path renders the notification path of one sync domain, optionally scoped
// to a target (album id, search request id, media set id).
func Path(domain models.Domain, targetID ...string) string {
	parts := append([]string{"media-cache", string(domain)}, targetID...)
	return strings.Join(parts, "/")
}

// Notifier publishes cache-change paths.
type Notifier interface {
	Notify(path string)
}

// Bus is an in-process [Notifier] fanning every change out to subscribers.
type Bus struct {
	logger *logger.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(path string)
}

// NewBus constructs an empty bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		logger: log,
		subs:   make(map[int]func(path string)),
	}
}

// Subscribe registers fn for every published path and returns the function
// that removes the subscription.
func (b *Bus) Subscribe(fn func(path string)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Notify implements [Notifier]. Subscribers run synchronously on the
// caller's goroutine; they are expected to hand off promptly.
func (b *Bus) Notify(path string) {
	b.mu.RLock()
	subs := make([]func(string), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	b.logger.Debug().
		Str("func", "Bus.Notify").
		Str("path", path).
		Int("subscribers", len(subs)).
		Msg("cache change published")

	for _, fn := range subs {
		fn(path)
	}
}
