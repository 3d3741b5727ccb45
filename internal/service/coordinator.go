// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

// Package service exposes the engine's public operations: reads over the
// cache, sync requests, and the cloud provider lifecycle.
package service

import (
	"context"
	"time"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/internal/provider"
	"github.com/pkazmin/go-media-cache/internal/schedule"
	"github.com/pkazmin/go-media-cache/internal/store"
	"github.com/pkazmin/go-media-cache/internal/tracker"
	"github.com/pkazmin/go-media-cache/internal/worker"
	"github.com/pkazmin/go-media-cache/models"
)

// Coordinator is the engine facade. Reads come straight from the cache;
// anything that talks to a provider goes through the scheduler so that
// dedupe policies and the tracker see every request.
type Coordinator struct {
	repos     *store.Repositories
	providers *provider.Registry
	scheduler *schedule.Scheduler
	workers   *worker.Workers
	tracker   *tracker.Tracker
	notifier  notify.Notifier
	cfg       *config.Config
	logger    *logger.Logger
}

// NewCoordinator wires the facade.
func NewCoordinator(
	repos *store.Repositories,
	providers *provider.Registry,
	scheduler *schedule.Scheduler,
	workers *worker.Workers,
	trk *tracker.Tracker,
	notifier notify.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		repos:     repos,
		providers: providers,
		scheduler: scheduler,
		workers:   workers,
		tracker:   trk,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log,
	}
}

// syncSource is the widest source set currently usable: both roles when a
// cloud provider is configured and cloud sync is on, local otherwise.
func (c *Coordinator) syncSource() models.SyncSource {
	if _, ok := c.providers.Cloud(); ok && c.cfg.Sync.CloudSyncEnabled {
		return models.SyncLocalAndCloud
	}
	return models.SyncLocalOnly
}

// Start registers the recurring maintenance work and kicks off the initial
// proactive pulls.
func (c *Coordinator) Start() {
	c.scheduler.SchedulePeriodicWork()
	c.scheduler.SyncMediaProactively(c.syncSource())
	c.scheduler.SyncGrantsImmediately()
}

// AwaitIdle blocks until every sync in flight at the moment of the call has
// made its first progress, bounded by ctx.
func (c *Coordinator) AwaitIdle(ctx context.Context) error {
	return c.tracker.AwaitIdle(ctx)
}

// AwaitSyncs blocks until every in-flight sync of one domain and source role
// has made its first progress, bounded by ctx. Syncs of other domains or
// roles are not waited for.
func (c *Coordinator) AwaitSyncs(ctx context.Context, domain models.Domain, source models.SyncSource) error {
	return c.tracker.AwaitAll(ctx, domain, source)
}

// SyncMediaNow requests an immediate pull of the main media feed.
func (c *Coordinator) SyncMediaNow() {
	c.scheduler.SyncMediaImmediately(c.syncSource())
}

// SyncAlbumMediaNow requests an immediate pull of one album's contents.
func (c *Coordinator) SyncAlbumMediaNow(albumID string) {
	c.scheduler.SyncAlbumMediaImmediately(albumID, c.syncSource())
}

// SyncMediaSetsNow requests an immediate pull of one category's media sets.
func (c *Coordinator) SyncMediaSetsNow(params models.MediaSetsSyncParams, source models.SyncSource) {
	c.scheduler.SyncMediaSets(params, source)
}

// SyncMediaInMediaSetNow requests an immediate pull of one media set's
// contents.
func (c *Coordinator) SyncMediaInMediaSetNow(params models.MediaInMediaSetSyncParams, source models.SyncSource) {
	c.scheduler.SyncMediaInMediaSet(params, source)
}

// SyncGrantsNow requests an immediate wholesale refresh of the grant set.
func (c *Coordinator) SyncGrantsNow() {
	c.scheduler.SyncGrantsImmediately()
}

// OnSearchSessionEnded schedules the delayed full search cache reset. Called
// when the consumer's search surface goes away; the delay lets a quickly
// reopened session reuse the cached results.
func (c *Coordinator) OnSearchSessionEnded() {
	c.scheduler.DelayedResetSearchCache()
}

// EnsureSearchRequest persists the logical search request (resolving to the
// existing row when an equal one is already cached), remembers it in the
// search history, and schedules the pull of its results. The returned id is
// what readers page the results by.
func (c *Coordinator) EnsureSearchRequest(ctx context.Context, req models.SearchRequest) (int64, error) {
	log := logger.FromContext(ctx)

	id, err := c.repos.Search.SaveSearchRequest(ctx, req)
	if err != nil {
		log.Err(err).Str("func", "Coordinator.EnsureSearchRequest").Msg("failed to persist search request")
		return 0, err
	}

	if histErr := c.repos.Search.SaveSearchHistory(ctx, historyEntryOf(req)); histErr != nil {
		// history is cosmetic, the search itself proceeds
		log.Warn().Err(histErr).Str("func", "Coordinator.EnsureSearchRequest").Msg("failed to record search history")
	}

	c.scheduler.SyncSearchResults(id, c.syncSource())
	return id, nil
}

func historyEntryOf(req models.SearchRequest) models.SearchHistoryEntry {
	entry := models.SearchHistoryEntry{CreatedAtMS: time.Now().UnixMilli()}
	switch v := req.(type) {
	case *models.SearchTextRequest:
		entry.SearchText = v.SearchText
	case *models.SearchSuggestionRequest:
		entry.SearchText = v.SearchText
		entry.MediaSetID = v.MediaSetID
		entry.Authority = v.SuggestionAuthority
		entry.Type = v.Type
	}
	return entry
}

// RefreshSuggestions pulls fresh suggestions for a prefix from every usable
// source and upserts them into the cache. Runs in the caller's goroutine;
// the cached rows remain readable throughout.
func (c *Coordinator) RefreshSuggestions(ctx context.Context, prefix string, limit int) error {
	var lastErr error
	for _, src := range []models.SyncSource{models.SyncLocalOnly, models.SyncCloudOnly} {
		if src == models.SyncCloudOnly {
			if _, ok := c.providers.Cloud(); !ok || !c.cfg.Sync.CloudSyncEnabled {
				continue
			}
		}
		if err := c.workers.RefreshSuggestions(ctx, prefix, src, limit); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// OnCloudProviderChanged installs (or removes, with nil) the cloud
// authority. When the identity actually changes, every cloud-derived cache
// partition is invalidated in one sweep before new pulls are scheduled:
// tokens issued by the previous authority are unusable and keeping its rows
// would mix two providers' views.
func (c *Coordinator) OnCloudProviderChanged(ctx context.Context, client provider.Client) error {
	log := logger.FromContext(ctx)

	if !c.providers.SetCloudProvider(client) {
		return nil
	}

	// a sync begun under the previous authority must not keep committing
	// pages into the partitions wiped below
	c.scheduler.CancelCloudBackedSyncs()

	if err := c.repos.Media.ClearMedia(ctx, models.SyncCloudOnly); err != nil {
		log.Err(err).Str("func", "Coordinator.OnCloudProviderChanged").Msg("failed to clear cloud media rows")
		return err
	}
	if err := c.repos.Media.ClearAllAlbumMedia(ctx); err != nil {
		log.Err(err).Str("func", "Coordinator.OnCloudProviderChanged").Msg("failed to clear album media cache")
		return err
	}
	if err := c.repos.Search.ClearAllSearchData(ctx); err != nil {
		log.Err(err).Str("func", "Coordinator.OnCloudProviderChanged").Msg("failed to clear search cache")
		return err
	}
	if err := c.repos.MediaSets.ClearAllMediaSetData(ctx); err != nil {
		log.Err(err).Str("func", "Coordinator.OnCloudProviderChanged").Msg("failed to clear media set cache")
		return err
	}

	c.notifier.Notify(notify.Path(models.DomainMedia))
	c.notifier.Notify(notify.Path(models.DomainAlbumMedia))
	c.notifier.Notify(notify.Path(models.DomainSearchResults))
	c.notifier.Notify(notify.Path(models.DomainSearchSuggestions))
	c.notifier.Notify(notify.Path(models.DomainMediaSets))

	if client != nil && c.cfg.Sync.CloudSyncEnabled {
		c.scheduler.SyncMediaImmediately(models.SyncCloudOnly)
	}

	return nil
}

// Media reads one page of the main media grid.
func (c *Coordinator) Media(ctx context.Context, q store.MediaQuery) (models.MediaPage, error) {
	return c.repos.Pager.MediaPage(ctx, q)
}

// AlbumMedia reads one page of an album's contents.
func (c *Coordinator) AlbumMedia(ctx context.Context, albumID string, q store.MediaQuery) (models.MediaPage, error) {
	return c.repos.Pager.AlbumMediaPage(ctx, albumID, q)
}

// SearchResults reads one page of a search request's results.
func (c *Coordinator) SearchResults(ctx context.Context, requestID int64, q store.MediaQuery) (models.MediaPage, error) {
	return c.repos.Pager.SearchResultsPage(ctx, requestID, q)
}

// MediaInMediaSet reads one page of a media set's contents.
func (c *Coordinator) MediaInMediaSet(ctx context.Context, pickerID int64, q store.MediaQuery) (models.MediaPage, error) {
	return c.repos.Pager.MediaInMediaSetPage(ctx, pickerID, q)
}

// MediaSets lists the cached sets of a category and authority.
func (c *Coordinator) MediaSets(ctx context.Context, categoryID, authority string) ([]models.MediaSet, error) {
	return c.repos.MediaSets.ListMediaSets(ctx, categoryID, authority)
}

// Suggestions reads the cached search suggestions, newest first.
func (c *Coordinator) Suggestions(ctx context.Context, limit int) ([]models.SearchSuggestion, error) {
	return c.repos.Search.GetSuggestions(ctx, limit)
}

// SearchHistory reads the remembered searches, newest first.
func (c *Coordinator) SearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error) {
	return c.repos.Search.GetSearchHistory(ctx, limit)
}

// Grants reads the cached access grants of one package.
func (c *Coordinator) Grants(ctx context.Context, packageUID int) ([]models.AccessGrant, error) {
	return c.repos.Grants.GetGrants(ctx, packageUID)
}
