// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/tracker"
	"github.com/pkazmin/go-media-cache/models"
)

// Executors is the work the scheduler can dispatch, implemented by the
// worker layer. Sync executors own the tracker handle they are given and
// must complete it before returning, whatever the outcome.
type Executors interface {
	SyncMedia(ctx context.Context, source models.SyncSource, h tracker.Handle) error
	SyncAlbumMedia(ctx context.Context, albumID string, source models.SyncSource, h tracker.Handle) error
	SyncSearchResults(ctx context.Context, requestID int64, source models.SyncSource, h tracker.Handle) error
	SyncMediaSets(ctx context.Context, params models.MediaSetsSyncParams, source models.SyncSource, h tracker.Handle) error
	SyncMediaInMediaSet(ctx context.Context, params models.MediaInMediaSetSyncParams, source models.SyncSource, h tracker.Handle) error
	SyncGrants(ctx context.Context, h tracker.Handle) error

	ResetAlbumMediaCache(ctx context.Context) error
	ResetCloudSearchCache(ctx context.Context) error
	ResetAllSearchCache(ctx context.Context) error
	PruneExpiredSearchData(ctx context.Context) error
}

// Unique work names. Per-target syncs append their source role first and
// their target key after it, so every (base, source) group of names shares a
// cancellable prefix.
const (
	workMediaSync         = "media_sync"
	workAlbumMediaSync    = "album_media_sync"
	workSearchResultsSync = "search_results_sync"
	workMediaSetsSync     = "media_sets_sync"
	workMediaInSetSync    = "media_in_media_set_sync"
	workGrantsSync        = "grants_sync"

	workCloudSearchReset   = "cloud_search_cache_reset"
	workDelayedSearchReset = "search_cache_reset_delayed"

	workPeriodicMediaSync  = "periodic_media_sync"
	workPeriodicAlbumReset = "periodic_album_reset"
	workPeriodicPrune      = "periodic_search_prune"
)

// Scheduler translates sync requests into deduplicated queue work. Every
// sync is registered with the tracker before it is enqueued, so a caller
// awaiting the tracker right after a request never misses it; when the
// queue refuses the work the registration is released immediately.
type Scheduler struct {
	queue   *Queue
	tracker *tracker.Tracker
	exec    Executors
	cfg     config.Sync
	logger  *logger.Logger
}

// NewScheduler wires a scheduler over the queue and executors.
func NewScheduler(queue *Queue, trk *tracker.Tracker, exec Executors, cfg config.Sync, log *logger.Logger) *Scheduler {
	return &Scheduler{
		queue:   queue,
		tracker: trk,
		exec:    exec,
		cfg:     cfg,
		logger:  log,
	}
}

// expandSources splits a request into the single-role syncs to run.
func (s *Scheduler) expandSources(source models.SyncSource) []models.SyncSource {
	if source == models.SyncLocalAndCloud {
		return []models.SyncSource{models.SyncLocalOnly, models.SyncCloudOnly}
	}
	return []models.SyncSource{source}
}

// sourceGroup is the shared name prefix of one source role's syncs under a
// base work name.
func sourceGroup(base string, src models.SyncSource) string {
	return base + "_" + src.String()
}

// scheduleTracked registers a sync and enqueues its work. The registration
// is released whenever the work can no longer run: on enqueue failure here,
// or later through Discarded when the queue drops the work before its body
// starts. Enqueue failures are terminal for this request: the failure is
// logged, never propagated to the caller.
func (s *Scheduler) scheduleTracked(domain models.Domain, src models.SyncSource, w Work, run func(ctx context.Context, h tracker.Handle) error) {
	h := s.tracker.BeginTracking(domain, src)
	w.Run = func(ctx context.Context) error {
		return run(ctx, h)
	}
	w.Discarded = func() {
		s.tracker.Complete(h)
	}

	if err := s.queue.Enqueue(w); err != nil {
		s.tracker.Complete(h)
		if errors.Is(err, ErrWorkKept) {
			s.logger.Debug().
				Str("func", "Scheduler.scheduleTracked").
				Str("name", w.Name).
				Msg("sync request deduplicated")
			return
		}
		s.logger.Warn().
			Err(err).
			Str("func", "Scheduler.scheduleTracked").
			Str("name", w.Name).
			Msg("failed to enqueue sync work")
	}
}

// SyncMediaProactively requests a delayed, battery-gated pull of the main
// media feed. Redundant requests are dropped.
func (s *Scheduler) SyncMediaProactively(source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainMedia, src, Work{
			Name:        sourceGroup(workMediaSync, src),
			Policy:      PolicyKeep,
			Delay:       s.cfg.ProactiveDelay,
			Constraints: Constraints{RequireBatteryNotLow: true},
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncMedia(ctx, src, h)
		})
	}
}

// SyncMediaImmediately requests an unconstrained pull of the main media
// feed, appending behind a pull already in flight.
func (s *Scheduler) SyncMediaImmediately(source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainMedia, src, Work{
			Name:   sourceGroup(workMediaSync, src),
			Policy: PolicyAppendOrReplace,
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncMedia(ctx, src, h)
		})
	}
}

// SyncAlbumMediaImmediately requests a pull of one album's contents.
func (s *Scheduler) SyncAlbumMediaImmediately(albumID string, source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainAlbumMedia, src, Work{
			Name:   fmt.Sprintf("%s_%s", sourceGroup(workAlbumMediaSync, src), albumID),
			Policy: PolicyAppendOrReplace,
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncAlbumMedia(ctx, albumID, src, h)
		})
	}
}

// SyncSearchResults requests a pull of one search request's results.
func (s *Scheduler) SyncSearchResults(requestID int64, source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainSearchResults, src, Work{
			Name:   fmt.Sprintf("%s_%d", sourceGroup(workSearchResultsSync, src), requestID),
			Policy: PolicyAppendOrReplace,
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncSearchResults(ctx, requestID, src, h)
		})
	}
}

// SyncMediaSets requests a pull of the media sets in one category.
func (s *Scheduler) SyncMediaSets(params models.MediaSetsSyncParams, source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainMediaSets, src, Work{
			Name:   fmt.Sprintf("%s_%s_%s", sourceGroup(workMediaSetsSync, src), params.CategoryID, params.Authority),
			Policy: PolicyAppendOrReplace,
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncMediaSets(ctx, params, src, h)
		})
	}
}

// SyncMediaInMediaSet requests a pull of one media set's contents.
func (s *Scheduler) SyncMediaInMediaSet(params models.MediaInMediaSetSyncParams, source models.SyncSource) {
	for _, src := range s.expandSources(source) {
		s.scheduleTracked(models.DomainMediaSetContents, src, Work{
			Name:   fmt.Sprintf("%s_%d", sourceGroup(workMediaInSetSync, src), params.MediaSetPickerID),
			Policy: PolicyAppendOrReplace,
		}, func(ctx context.Context, h tracker.Handle) error {
			return s.exec.SyncMediaInMediaSet(ctx, params, src, h)
		})
	}
}

// SyncGrantsImmediately requests a wholesale refresh of the grant set from
// the local authority.
func (s *Scheduler) SyncGrantsImmediately() {
	s.scheduleTracked(models.DomainGrants, models.SyncLocalOnly, Work{
		Name:   workGrantsSync,
		Policy: PolicyAppendOrReplace,
	}, func(ctx context.Context, h tracker.Handle) error {
		return s.exec.SyncGrants(ctx, h)
	})
}

// ResetCloudSearchCache clears cloud search state now. Cloud search syncs in
// flight are cancelled first so none of them keeps committing pages into the
// partition being wiped.
func (s *Scheduler) ResetCloudSearchCache() {
	s.queue.CancelPrefix(sourceGroup(workSearchResultsSync, models.SyncCloudOnly))

	err := s.queue.Enqueue(Work{
		Name:   workCloudSearchReset,
		Policy: PolicyReplace,
		Run:    s.exec.ResetCloudSearchCache,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("func", "Scheduler.ResetCloudSearchCache").
			Msg("failed to enqueue cloud search cache reset")
	}
}

// CancelCloudBackedSyncs stops every sync that can write cloud-derived rows.
// Called before the cloud cache partitions are invalidated so a sync begun
// under the previous authority cannot repopulate them. The album, search and
// media set partitions are wiped for both roles, so both roles' syncs are
// cancelled there.
func (s *Scheduler) CancelCloudBackedSyncs() {
	s.queue.Cancel(sourceGroup(workMediaSync, models.SyncCloudOnly))
	s.queue.CancelPrefix(workAlbumMediaSync)
	s.queue.CancelPrefix(workSearchResultsSync)
	s.queue.CancelPrefix(workMediaSetsSync)
	s.queue.CancelPrefix(workMediaInSetSync)
}

// DelayedResetSearchCache schedules the full search cache reset that runs
// once the device has been idle for the configured delay. The first request
// wins: later requests do not push the reset further out.
func (s *Scheduler) DelayedResetSearchCache() {
	err := s.queue.Enqueue(Work{
		Name:        workDelayedSearchReset,
		Policy:      PolicyKeep,
		Delay:       s.cfg.SearchResetDelay,
		Constraints: Constraints{RequireIdle: true},
		Run:         s.exec.ResetAllSearchCache,
	})
	if err != nil && !errors.Is(err, ErrWorkKept) {
		s.logger.Warn().
			Err(err).
			Str("func", "Scheduler.DelayedResetSearchCache").
			Msg("failed to enqueue delayed search cache reset")
	}
}

// SchedulePeriodicWork registers the recurring maintenance work: the
// periodic media pull, the album cache reset and the suggestion prune.
// Existing registrations are kept.
func (s *Scheduler) SchedulePeriodicWork() {
	maintenance := Constraints{RequireIdle: true, RequireCharging: true}

	periodicSource := models.SyncLocalOnly
	if s.cfg.CloudSyncEnabled {
		periodicSource = models.SyncLocalAndCloud
	}

	works := []Work{
		{
			Name:        workPeriodicMediaSync,
			Policy:      PolicyKeep,
			Interval:    s.cfg.PeriodicInterval,
			Constraints: maintenance,
			Run: func(ctx context.Context) error {
				for _, src := range s.expandSources(periodicSource) {
					h := s.tracker.BeginTracking(models.DomainMedia, src)
					if err := s.exec.SyncMedia(ctx, src, h); err != nil {
						s.logger.Warn().
							Err(err).
							Str("func", "Scheduler.SchedulePeriodicWork").
							Str("source", src.String()).
							Msg("periodic media sync failed")
					}
				}
				return nil
			},
		},
		{
			Name:        workPeriodicAlbumReset,
			Policy:      PolicyKeep,
			Interval:    s.cfg.AlbumResetInterval,
			Constraints: maintenance,
			Run:         s.exec.ResetAlbumMediaCache,
		},
		{
			Name:     workPeriodicPrune,
			Policy:   PolicyKeep,
			Interval: s.cfg.SuggestionTTL,
			Run:      s.exec.PruneExpiredSearchData,
		},
	}

	for _, w := range works {
		if err := s.queue.Enqueue(w); err != nil && !errors.Is(err, ErrWorkKept) {
			s.logger.Warn().
				Err(err).
				Str("func", "Scheduler.SchedulePeriodicWork").
				Str("name", w.Name).
				Msg("failed to register periodic work")
		}
	}
}

// CancelPeriodicWork removes the recurring maintenance registrations.
func (s *Scheduler) CancelPeriodicWork() {
	for _, name := range []string{workPeriodicMediaSync, workPeriodicAlbumReset, workPeriodicPrune} {
		s.queue.Cancel(name)
	}
}
