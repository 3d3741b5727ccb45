// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/go-media-cache/models"
)

func TestSaveSearchRequest_EqualRequestResolvesToSameID(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	first := &models.SearchTextRequest{SearchText: "beach"}
	id, err := repos.Search.SaveSearchRequest(ctx, first)
	require.NoError(t, err)
	require.NotZero(t, id)
	assert.Equal(t, id, first.ID)

	// the same logical request with a differently spelled mime filter
	second := &models.SearchTextRequest{SearchText: "beach"}
	again, err := repos.Search.SaveSearchRequest(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, id, second.ID)

	assert.Equal(t, 1, countRows(t, db, "search_request"))
}

func TestSaveSearchRequest_MimeFilterNormalization(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{
		SearchText:        "beach",
		SearchRequestBase: models.SearchRequestBase{MimeTypes: []string{"Video/MP4", "image/png"}},
	})
	require.NoError(t, err)

	again, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{
		SearchText:        "beach",
		SearchRequestBase: models.SearchRequestBase{MimeTypes: []string{"IMAGE/PNG", "video/mp4"}},
	})
	require.NoError(t, err)

	assert.Equal(t, id, again, "order and case of the mime filter must not split the request identity")
	assert.Equal(t, 1, countRows(t, db, "search_request"))
}

func TestSaveSearchRequest_VariantsAreDistinct(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	textID, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)

	suggestionID, err := repos.Search.SaveSearchRequest(ctx, &models.SearchSuggestionRequest{
		SearchText:          "beach",
		MediaSetID:          "set-1",
		SuggestionAuthority: "cloud.a",
		Type:                models.SuggestionAlbum,
	})
	require.NoError(t, err)

	assert.NotEqual(t, textID, suggestionID)
	assert.Equal(t, 2, countRows(t, db, "search_request"))
}

func TestGetSearchRequest_ReconstructsVariants(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	textID, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{
		SearchText:        "beach",
		SearchRequestBase: models.SearchRequestBase{MimeTypes: []string{"image/png"}},
	})
	require.NoError(t, err)

	suggestionID, err := repos.Search.SaveSearchRequest(ctx, &models.SearchSuggestionRequest{
		SearchText:          "rex",
		MediaSetID:          "set-1",
		SuggestionAuthority: "cloud.a",
		Type:                models.SuggestionFace,
	})
	require.NoError(t, err)

	got, err := repos.Search.GetSearchRequest(ctx, textID)
	require.NoError(t, err)
	text, ok := got.(*models.SearchTextRequest)
	require.True(t, ok, "expected a text request, got %T", got)
	assert.Equal(t, "beach", text.SearchText)
	assert.Equal(t, []string{"image/png"}, text.MimeTypes)

	got, err = repos.Search.GetSearchRequest(ctx, suggestionID)
	require.NoError(t, err)
	suggestion, ok := got.(*models.SearchSuggestionRequest)
	require.True(t, ok, "expected a suggestion request, got %T", got)
	assert.Equal(t, "rex", suggestion.SearchText)
	assert.Equal(t, "set-1", suggestion.MediaSetID)
	assert.Equal(t, "cloud.a", suggestion.SuggestionAuthority)
	assert.Equal(t, models.SuggestionFace, suggestion.Type)
}

func TestGetSearchRequest_NotFound(t *testing.T) {
	repos, _ := newTestRepos(t)

	_, err := repos.Search.GetSearchRequest(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrSearchRequestNotFound)
}

func TestApplySearchResultsPage_StoresPerRoleResume(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)

	localItems := []models.SearchResultItem{{LocalID: "l1"}, {LocalID: "l2"}}
	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncLocalOnly, localItems,
		models.ResumePoint{Token: "lp-2", Authority: "local"}))

	cloudItems := []models.SearchResultItem{{CloudID: "c1"}}
	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncCloudOnly, cloudItems,
		models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}))

	assert.Equal(t, 3, countRows(t, db, "search_result_media"))

	req, err := repos.Search.GetSearchRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{Token: "lp-2", Authority: "local"}, req.Base().Local)
	assert.Equal(t, models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}, req.Base().Cloud)
}

func TestApplySearchResultsPage_UnknownRequest(t *testing.T) {
	repos, _ := newTestRepos(t)

	err := repos.Search.ApplySearchResultsPage(context.Background(), 999, models.SyncLocalOnly, nil,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"})
	assert.ErrorIs(t, err, ErrSearchRequestNotFound)
}

func TestClearObsoleteResults(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)

	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncLocalOnly,
		[]models.SearchResultItem{{LocalID: "l1"}}, models.ResumePoint{Token: "lp", Authority: "local"}))
	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncCloudOnly,
		[]models.SearchResultItem{{CloudID: "c1"}}, models.ResumePoint{Token: "cp", Authority: "cloud.a"}))

	require.NoError(t, repos.Search.ClearObsoleteResults(ctx, id, models.SyncLocalOnly))

	assert.Equal(t, 1, countRows(t, db, "search_result_media"), "only the local role's rows are cleared")

	req, err := repos.Search.GetSearchRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{}, req.Base().Local)
	assert.Equal(t, models.ResumePoint{Token: "cp", Authority: "cloud.a"}, req.Base().Cloud)
}

func TestClearAllSearchData(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)
	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncLocalOnly,
		[]models.SearchResultItem{{LocalID: "l1"}}, models.ResumePoint{Token: "lp", Authority: "local"}))
	require.NoError(t, repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", SearchText: "beach", Type: models.SuggestionText, CreatedAtMS: 1},
	}))
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "beach", CreatedAtMS: 1}))

	require.NoError(t, repos.Search.ClearAllSearchData(ctx))

	for _, table := range []string{"search_request", "search_result_media", "search_suggestion", "search_history"} {
		assert.Zero(t, countRows(t, db, table), "table %s must be empty", table)
	}
}

func TestClearCloudSearchData_KeepsLocalState(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)

	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncLocalOnly,
		[]models.SearchResultItem{{LocalID: "l1"}}, models.ResumePoint{Token: "lp", Authority: "local"}))
	require.NoError(t, repos.Search.ApplySearchResultsPage(ctx, id, models.SyncCloudOnly,
		[]models.SearchResultItem{{CloudID: "c1"}}, models.ResumePoint{Token: "cp", Authority: "cloud.a"}))

	require.NoError(t, repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", SearchText: "beach", Type: models.SuggestionText, CreatedAtMS: 1},
		{Authority: "cloud.a", MediaSetID: "set-1", SearchText: "rex", Type: models.SuggestionFace, CreatedAtMS: 2},
	}))
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "beach", CreatedAtMS: 1}))

	require.NoError(t, repos.Search.ClearCloudSearchData(ctx, "cloud.a"))

	assert.Equal(t, 1, countRows(t, db, "search_result_media"))
	assert.Equal(t, 1, countRows(t, db, "search_suggestion"))
	assert.Equal(t, 1, countRows(t, db, "search_history"), "history survives a cloud reset")

	req, err := repos.Search.GetSearchRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{Token: "lp", Authority: "local"}, req.Base().Local)
	assert.Equal(t, models.ResumePoint{}, req.Base().Cloud)
}

func TestSuggestions_UpsertAndOrdering(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", SearchText: "old", Type: models.SuggestionText, CreatedAtMS: 100},
		{Authority: "cloud.a", MediaSetID: "set-1", SearchText: "rex", Type: models.SuggestionFace, CreatedAtMS: 200},
	}))

	// the same (authority, media set, type) identity refreshes in place
	require.NoError(t, repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", SearchText: "new", Type: models.SuggestionText, CreatedAtMS: 300},
	}))

	assert.Equal(t, 2, countRows(t, db, "search_suggestion"))

	got, err := repos.Search.GetSuggestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].SearchText, "newest first")
	assert.Equal(t, "rex", got[1].SearchText)

	limited, err := repos.Search.GetSuggestions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].SearchText)
}

func TestSearchHistory_UpsertAndOrdering(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "beach", CreatedAtMS: 100}))
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "sunset", CreatedAtMS: 200}))

	// repeating a search refreshes its timestamp instead of duplicating it
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "beach", CreatedAtMS: 300}))

	assert.Equal(t, 2, countRows(t, db, "search_history"))

	got, err := repos.Search.GetSearchHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "beach", got[0].SearchText)
	assert.Equal(t, "sunset", got[1].SearchText)
}

func TestPruneExpired(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", SearchText: "stale", Type: models.SuggestionText, CreatedAtMS: 100},
		{Authority: "cloud.a", MediaSetID: "set-1", SearchText: "fresh", Type: models.SuggestionFace, CreatedAtMS: 900},
	}))
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "stale", CreatedAtMS: 100}))
	require.NoError(t, repos.Search.SaveSearchHistory(ctx, models.SearchHistoryEntry{SearchText: "fresh", CreatedAtMS: 900}))

	pruned, err := repos.Search.PruneExpired(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	suggestions, err := repos.Search.GetSuggestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "fresh", suggestions[0].SearchText)

	history, err := repos.Search.GetSearchHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "fresh", history[0].SearchText)
}
