// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package worker

import (
	"context"
	"time"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/models"
)

// ResetAlbumMediaCache drops every cached album membership row together
// with the album resume state. Album contents are cheap to re-pull on
// demand and go stale invisibly, so they are wiped on a schedule instead
// of diffed.
func (w *Workers) ResetAlbumMediaCache(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := w.repos.Media.ClearAllAlbumMedia(ctx); err != nil {
		log.Err(err).Str("func", "Workers.ResetAlbumMediaCache").Msg("failed to clear album media cache")
		return err
	}

	w.notifier.Notify(notify.Path(models.DomainAlbumMedia))
	return nil
}

// ResetCloudSearchCache drops cloud-originated search state while keeping
// local results usable.
func (w *Workers) ResetCloudSearchCache(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := w.repos.Search.ClearCloudSearchData(ctx, w.providers.CloudAuthority()); err != nil {
		log.Err(err).Str("func", "Workers.ResetCloudSearchCache").Msg("failed to clear cloud search cache")
		return err
	}

	w.notifier.Notify(notify.Path(models.DomainSearchResults))
	w.notifier.Notify(notify.Path(models.DomainSearchSuggestions))
	return nil
}

// ResetAllSearchCache drops every search request, result, suggestion and
// history entry.
func (w *Workers) ResetAllSearchCache(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := w.repos.Search.ClearAllSearchData(ctx); err != nil {
		log.Err(err).Str("func", "Workers.ResetAllSearchCache").Msg("failed to clear search cache")
		return err
	}

	w.notifier.Notify(notify.Path(models.DomainSearchResults))
	w.notifier.Notify(notify.Path(models.DomainSearchSuggestions))
	return nil
}

// PruneExpiredSearchData removes suggestion and history rows older than the
// configured TTL.
func (w *Workers) PruneExpiredSearchData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	cutoff := time.Now().Add(-w.cfg.SuggestionTTL).UnixMilli()
	pruned, err := w.repos.Search.PruneExpired(ctx, cutoff)
	if err != nil {
		log.Err(err).Str("func", "Workers.PruneExpiredSearchData").Msg("failed to prune expired search data")
		return err
	}

	if pruned > 0 {
		log.Debug().
			Str("func", "Workers.PruneExpiredSearchData").
			Int64("pruned", pruned).
			Msg("expired search rows removed")
		w.notifier.Notify(notify.Path(models.DomainSearchSuggestions))
	}

	return nil
}
