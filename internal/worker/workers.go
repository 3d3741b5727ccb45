// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

// Package worker implements the sync executors: resumable page pulls from a
// source authority into the cache store, plus the cache reset bodies.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/internal/provider"
	"github.com/pkazmin/go-media-cache/internal/store"
	"github.com/pkazmin/go-media-cache/internal/tracker"
	"github.com/pkazmin/go-media-cache/models"
)

var (
	// ErrResumeTokenLoop aborts a sync whose provider keeps handing back a
	// token that was already consumed. Without this check a misbehaving
	// provider would spin the pull forever.
	ErrResumeTokenLoop = errors.New("provider returned an already-seen resume token")

	// ErrSyncValidation rejects a sync request with missing or inconsistent
	// inputs before any fetch happens.
	ErrSyncValidation = errors.New("invalid sync request")

	// errCollectionChanged signals mid-pull that the provider's collection
	// generation no longer matches the stored resume state.
	errCollectionChanged = errors.New("provider media collection changed")
)

// cloudProviderWait bounds how long a cloud-role sync waits for a cloud
// client to be configured before giving up.
const cloudProviderWait = 5 * time.Second

// Workers executes sync and reset work against the cache store. It
// implements the scheduler's executor contract.
type Workers struct {
	repos     *store.Repositories
	providers *provider.Registry
	tracker   *tracker.Tracker
	notifier  notify.Notifier
	cfg       config.Sync
	logger    *logger.Logger
}

// New wires the executors over the store, the provider registry and the
// notifier.
func New(repos *store.Repositories, providers *provider.Registry, trk *tracker.Tracker, notifier notify.Notifier, cfg config.Sync, log *logger.Logger) *Workers {
	return &Workers{
		repos:     repos,
		providers: providers,
		tracker:   trk,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log,
	}
}

// clientFor resolves the provider client for one sync role. The cloud role
// waits a bounded time for a client to appear.
func (w *Workers) clientFor(ctx context.Context, source models.SyncSource) (provider.Client, error) {
	if source.IsLocal() {
		return w.providers.Local(), nil
	}

	return w.providers.AwaitCloudProvider(ctx, cloudProviderWait)
}

// pageRequest builds the standard page fetch inputs.
func (w *Workers) pageRequest(token string, mimeTypes []string) provider.PageRequest {
	return provider.PageRequest{
		PageSize:    w.cfg.PageSize,
		ResumeToken: token,
		MimeTypes:   mimeTypes,
	}
}

// pageTarget is one resumable pull: where its continuation state lives, how
// to wipe it, and how to fetch-and-apply a single page atomically.
type pageTarget struct {
	domain models.Domain
	path   string

	// loadResume returns the stored continuation state.
	loadResume func(ctx context.Context) (models.ResumePoint, error)

	// reset drops the target's rows and continuation state together.
	reset func(ctx context.Context) error

	// fetchApply pulls the page after token and commits its rows plus the
	// following resume point in one transaction, returning that point.
	// It returns errCollectionChanged, without applying anything, when the
	// provider's collection no longer matches expectCollection.
	fetchApply func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error)
}

// runPageLoop drives one resumable pull to completion.
//
// Pages already committed stay in the cache whatever happens later: a fetch
// or apply error leaves the stored resume point at the last committed page,
// so the next run continues instead of starting over. The tracker handle is
// released as soon as the first page of this run is visible, letting
// waiters render partial results while the pull continues.
func (w *Workers) runPageLoop(ctx context.Context, h tracker.Handle, authority string, t pageTarget) error {
	log := logger.FromContext(ctx)

	resume, err := t.loadResume(ctx)
	if err != nil {
		return err
	}

	// a token is only valid against the authority that issued it
	if resume.Authority != "" && resume.Authority != authority {
		log.Info().
			Str("func", "Workers.runPageLoop").
			Str("domain", string(t.domain)).
			Str("stored_authority", resume.Authority).
			Str("authority", authority).
			Msg("authority changed, resetting sync target")
		if resetErr := t.reset(ctx); resetErr != nil {
			return resetErr
		}
		resume = models.ResumePoint{}
	}

	if resume.Complete() {
		return nil
	}

	seen := map[string]struct{}{resume.Token: {}}
	firstPage := true
	restarted := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, fetchErr := t.fetchApply(ctx, resume.Token, resume.CollectionID)
		if errors.Is(fetchErr, errCollectionChanged) && !restarted {
			restarted = true
			log.Info().
				Str("func", "Workers.runPageLoop").
				Str("domain", string(t.domain)).
				Msg("collection changed, resetting sync target")
			if resetErr := t.reset(ctx); resetErr != nil {
				return resetErr
			}
			resume = models.ResumePoint{}
			seen = map[string]struct{}{"": {}}
			continue
		}
		if fetchErr != nil {
			return fetchErr
		}

		if firstPage {
			w.tracker.Complete(h)
			firstPage = false
		}
		w.notifier.Notify(t.path)

		if next.Complete() {
			log.Debug().
				Str("func", "Workers.runPageLoop").
				Str("domain", string(t.domain)).
				Msg("sync target fully pulled")
			return nil
		}

		if _, dup := seen[next.Token]; dup {
			log.Error().
				Str("func", "Workers.runPageLoop").
				Str("domain", string(t.domain)).
				Str("token", next.Token).
				Msg("aborting sync: resume token loop")
			return fmt.Errorf("%w: %q", ErrResumeTokenLoop, next.Token)
		}
		seen[next.Token] = struct{}{}
		resume = next
	}
}
