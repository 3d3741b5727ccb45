// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

// cloudProbeInterval is how often AwaitCloudProvider re-checks for a cloud
// client while waiting.
const cloudProbeInterval = 100 * time.Millisecond

// Registry holds the provider roles: a fixed local authority and an
// optional, swappable cloud authority. Reads and swaps of the cloud slot
// are safe for concurrent use.
type Registry struct {
	local  Client
	logger *logger.Logger

	mu    sync.RWMutex
	cloud Client
}

// NewRegistry constructs a registry with the given local authority and no
// cloud authority.
func NewRegistry(local Client, log *logger.Logger) *Registry {
	return &Registry{
		local:  local,
		logger: log,
	}
}

// Local returns the local authority client.
func (r *Registry) Local() Client {
	return r.local
}

// Cloud returns the current cloud client, with ok reporting whether one is
// configured.
func (r *Registry) Cloud() (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloud, r.cloud != nil
}

// CloudAuthority returns the identity of the current cloud authority, or
// the empty string when none is configured.
func (r *Registry) CloudAuthority() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cloud == nil {
		return ""
	}
	return r.cloud.Authority()
}

// SetCloudProvider installs (or removes, with nil) the cloud authority.
// It reports whether the cloud identity actually changed; callers use that
// signal to invalidate cloud-derived cache state.
func (r *Registry) SetCloudProvider(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := ""
	if r.cloud != nil {
		previous = r.cloud.Authority()
	}
	next := ""
	if c != nil {
		next = c.Authority()
	}

	r.cloud = c
	changed := previous != next
	if changed {
		r.logger.Info().
			Str("func", "Registry.SetCloudProvider").
			Str("previous", previous).
			Str("next", next).
			Msg("cloud provider changed")
	}

	return changed
}

// ForSource resolves the client serving one sync role.
func (r *Registry) ForSource(source models.SyncSource) (Client, error) {
	if source.IsLocal() {
		return r.local, nil
	}

	cloud, ok := r.Cloud()
	if !ok {
		return nil, ErrNoCloudProvider
	}
	return cloud, nil
}

// AwaitCloudProvider waits up to maxWait for a cloud authority to be
// configured, probing at a fixed interval. A bounded wait keeps callers
// from hanging forever on a device that never enables cloud sync.
func (r *Registry) AwaitCloudProvider(ctx context.Context, maxWait time.Duration) (Client, error) {
	backoff := retry.WithMaxDuration(maxWait, retry.NewConstant(cloudProbeInterval))

	var cloud Client
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, ok := r.Cloud()
		if !ok {
			return retry.RetryableError(ErrNoCloudProvider)
		}
		cloud = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	return cloud, nil
}
