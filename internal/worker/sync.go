// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package worker

import (
	"context"
	"fmt"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/internal/provider"
	"github.com/pkazmin/go-media-cache/internal/store"
	"github.com/pkazmin/go-media-cache/internal/tracker"
	"github.com/pkazmin/go-media-cache/models"
)

// SyncMedia pulls the main media feed from one source role.
func (w *Workers) SyncMedia(ctx context.Context, source models.SyncSource, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncMedia").Str("source", source.String()).Msg("no provider for media sync")
		return err
	}

	return w.runPageLoop(ctx, h, client.Authority(), pageTarget{
		domain: models.DomainMedia,
		path:   notify.Path(models.DomainMedia),
		loadResume: func(ctx context.Context) (models.ResumePoint, error) {
			return w.repos.Media.GetResumePoint(ctx, models.DomainMedia, source, "")
		},
		reset: func(ctx context.Context) error {
			return w.repos.Media.ClearMedia(ctx, source)
		},
		fetchApply: func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error) {
			page, fetchErr := client.FetchMedia(ctx, w.pageRequest(token, nil))
			if fetchErr != nil {
				return models.ResumePoint{}, fetchErr
			}
			if expectCollection != "" && page.CollectionID != "" && page.CollectionID != expectCollection {
				return models.ResumePoint{}, errCollectionChanged
			}

			next := models.ResumePoint{
				Token:        page.NextToken,
				Authority:    client.Authority(),
				CollectionID: page.CollectionID,
			}
			if applyErr := w.repos.Media.ApplyMediaPage(ctx, source, page.Items, next); applyErr != nil {
				return models.ResumePoint{}, applyErr
			}
			return next, nil
		},
	})
}

// SyncAlbumMedia pulls one album's contents from one source role.
func (w *Workers) SyncAlbumMedia(ctx context.Context, albumID string, source models.SyncSource, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	if albumID == "" {
		return fmt.Errorf("%w: empty album id", ErrSyncValidation)
	}

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncAlbumMedia").Str("source", source.String()).Msg("no provider for album media sync")
		return err
	}

	return w.runPageLoop(ctx, h, client.Authority(), pageTarget{
		domain: models.DomainAlbumMedia,
		path:   notify.Path(models.DomainAlbumMedia, albumID),
		loadResume: func(ctx context.Context) (models.ResumePoint, error) {
			return w.repos.Media.GetResumePoint(ctx, models.DomainAlbumMedia, source, albumID)
		},
		reset: func(ctx context.Context) error {
			return w.repos.Media.ClearAlbumMedia(ctx, albumID, source)
		},
		fetchApply: func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error) {
			page, fetchErr := client.FetchAlbumMedia(ctx, albumID, w.pageRequest(token, nil))
			if fetchErr != nil {
				return models.ResumePoint{}, fetchErr
			}
			if expectCollection != "" && page.CollectionID != "" && page.CollectionID != expectCollection {
				return models.ResumePoint{}, errCollectionChanged
			}

			next := models.ResumePoint{
				Token:        page.NextToken,
				Authority:    client.Authority(),
				CollectionID: page.CollectionID,
			}
			if applyErr := w.repos.Media.ApplyAlbumMediaPage(ctx, albumID, source, page.Items, next); applyErr != nil {
				return models.ResumePoint{}, applyErr
			}
			return next, nil
		},
	})
}

// searchQueryOf renders the provider query of a persisted request.
func searchQueryOf(req models.SearchRequest) (provider.SearchQuery, error) {
	switch v := req.(type) {
	case *models.SearchTextRequest:
		return provider.SearchQuery{Text: v.SearchText}, nil
	case *models.SearchSuggestionRequest:
		return provider.SearchQuery{
			Text:           v.SearchText,
			MediaSetID:     v.MediaSetID,
			SuggestionType: v.Type,
		}, nil
	default:
		return provider.SearchQuery{}, fmt.Errorf("%w: unknown search request %T", ErrSyncValidation, req)
	}
}

// SyncSearchResults pulls the results of one persisted search request from
// one source role.
func (w *Workers) SyncSearchResults(ctx context.Context, requestID int64, source models.SyncSource, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncSearchResults").Str("source", source.String()).Msg("no provider for search sync")
		return err
	}

	req, err := w.repos.Search.GetSearchRequest(ctx, requestID)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncSearchResults").Int64("request_id", requestID).Msg("search request not loadable")
		return err
	}

	query, err := searchQueryOf(req)
	if err != nil {
		return err
	}
	mimeTypes := req.Base().MimeTypes

	return w.runPageLoop(ctx, h, client.Authority(), pageTarget{
		domain: models.DomainSearchResults,
		path:   notify.Path(models.DomainSearchResults, fmt.Sprint(requestID)),
		loadResume: func(ctx context.Context) (models.ResumePoint, error) {
			// the request row carries the per-role continuation inline
			current, loadErr := w.repos.Search.GetSearchRequest(ctx, requestID)
			if loadErr != nil {
				return models.ResumePoint{}, loadErr
			}
			if source.IsLocal() {
				return current.Base().Local, nil
			}
			return current.Base().Cloud, nil
		},
		reset: func(ctx context.Context) error {
			return w.repos.Search.ClearObsoleteResults(ctx, requestID, source)
		},
		fetchApply: func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error) {
			page, fetchErr := client.SearchMedia(ctx, query, w.pageRequest(token, mimeTypes))
			if fetchErr != nil {
				return models.ResumePoint{}, fetchErr
			}
			if expectCollection != "" && page.CollectionID != "" && page.CollectionID != expectCollection {
				return models.ResumePoint{}, errCollectionChanged
			}

			next := models.ResumePoint{
				Token:     page.NextToken,
				Authority: client.Authority(),
			}
			if applyErr := w.repos.Search.ApplySearchResultsPage(ctx, requestID, source, page.Items, next); applyErr != nil {
				return models.ResumePoint{}, applyErr
			}
			return next, nil
		},
	})
}

// SyncMediaSets pulls the media sets of one category from one source role.
func (w *Workers) SyncMediaSets(ctx context.Context, params models.MediaSetsSyncParams, source models.SyncSource, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	if params.CategoryID == "" {
		return fmt.Errorf("%w: empty category id", ErrSyncValidation)
	}

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncMediaSets").Str("source", source.String()).Msg("no provider for media sets sync")
		return err
	}

	params.Authority = client.Authority()
	targetKey := store.MediaSetsTargetKey(params)

	return w.runPageLoop(ctx, h, client.Authority(), pageTarget{
		domain: models.DomainMediaSets,
		path:   notify.Path(models.DomainMediaSets, params.CategoryID),
		loadResume: func(ctx context.Context) (models.ResumePoint, error) {
			return w.repos.Media.GetResumePoint(ctx, models.DomainMediaSets, source, targetKey)
		},
		reset: func(ctx context.Context) error {
			return w.repos.MediaSets.ClearMediaSets(ctx, source, params)
		},
		fetchApply: func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error) {
			page, fetchErr := client.FetchMediaSets(ctx, params.CategoryID, w.pageRequest(token, params.MimeTypes))
			if fetchErr != nil {
				return models.ResumePoint{}, fetchErr
			}
			if expectCollection != "" && page.CollectionID != "" && page.CollectionID != expectCollection {
				return models.ResumePoint{}, errCollectionChanged
			}

			next := models.ResumePoint{
				Token:        page.NextToken,
				Authority:    client.Authority(),
				CollectionID: page.CollectionID,
			}
			if applyErr := w.repos.MediaSets.ApplyMediaSetsPage(ctx, source, params, page.Sets, next); applyErr != nil {
				return models.ResumePoint{}, applyErr
			}
			return next, nil
		},
	})
}

// SyncMediaInMediaSet pulls one media set's contents from one source role.
func (w *Workers) SyncMediaInMediaSet(ctx context.Context, params models.MediaInMediaSetSyncParams, source models.SyncSource, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	if params.MediaSetPickerID == 0 {
		return fmt.Errorf("%w: empty media set picker id", ErrSyncValidation)
	}

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncMediaInMediaSet").Str("source", source.String()).Msg("no provider for media set contents sync")
		return err
	}

	set, err := w.repos.MediaSets.GetMediaSet(ctx, params.MediaSetPickerID)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncMediaInMediaSet").Int64("picker_id", params.MediaSetPickerID).Msg("media set not loadable")
		return err
	}

	return w.runPageLoop(ctx, h, client.Authority(), pageTarget{
		domain: models.DomainMediaSetContents,
		path:   notify.Path(models.DomainMediaSetContents, fmt.Sprint(params.MediaSetPickerID)),
		loadResume: func(ctx context.Context) (models.ResumePoint, error) {
			current, loadErr := w.repos.MediaSets.GetMediaSet(ctx, params.MediaSetPickerID)
			if loadErr != nil {
				return models.ResumePoint{}, loadErr
			}
			return current.Resume, nil
		},
		reset: func(ctx context.Context) error {
			return w.repos.MediaSets.ClearMediaInMediaSet(ctx, params.MediaSetPickerID, source)
		},
		fetchApply: func(ctx context.Context, token, expectCollection string) (models.ResumePoint, error) {
			page, fetchErr := client.FetchMediaInMediaSet(ctx, set.MediaSetID, w.pageRequest(token, nil))
			if fetchErr != nil {
				return models.ResumePoint{}, fetchErr
			}
			if expectCollection != "" && page.CollectionID != "" && page.CollectionID != expectCollection {
				return models.ResumePoint{}, errCollectionChanged
			}

			next := models.ResumePoint{
				Token:     page.NextToken,
				Authority: client.Authority(),
			}
			if applyErr := w.repos.MediaSets.ApplyMediaInMediaSetPage(ctx, params.MediaSetPickerID, source, page.Items, next); applyErr != nil {
				return models.ResumePoint{}, applyErr
			}
			return next, nil
		},
	})
}

// SyncGrants refreshes the grant set from the local authority. Grants are
// not paginated; the fetched set replaces the cached one wholesale.
func (w *Workers) SyncGrants(ctx context.Context, h tracker.Handle) error {
	defer w.tracker.Complete(h)
	log := logger.FromContext(ctx)

	grants, err := w.providers.Local().FetchGrants(ctx)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.SyncGrants").Msg("failed to fetch grants")
		return err
	}

	if err := w.repos.Grants.ReplaceGrants(ctx, grants); err != nil {
		log.Err(err).Str("func", "Workers.SyncGrants").Msg("failed to replace grant set")
		return err
	}

	w.notifier.Notify(notify.Path(models.DomainGrants))
	return nil
}

// RefreshSuggestions pulls the current suggestions for a prefix from one
// source role and upserts them into the cache.
func (w *Workers) RefreshSuggestions(ctx context.Context, prefix string, source models.SyncSource, limit int) error {
	log := logger.FromContext(ctx)

	client, err := w.clientFor(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.RefreshSuggestions").Str("source", source.String()).Msg("no provider for suggestions")
		return err
	}

	suggestions, err := client.FetchSuggestions(ctx, prefix, limit)
	if err != nil {
		log.Warn().Err(err).Str("func", "Workers.RefreshSuggestions").Msg("failed to fetch suggestions")
		return err
	}

	if err := w.repos.Search.SaveSuggestions(ctx, suggestions); err != nil {
		log.Err(err).Str("func", "Workers.RefreshSuggestions").Msg("failed to save suggestions")
		return err
	}

	w.notifier.Notify(notify.Path(models.DomainSearchSuggestions))
	return nil
}
