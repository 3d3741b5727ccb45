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

func applyTestMediaSets(t *testing.T, repos *Repositories, params models.MediaSetsSyncParams, sets ...models.MediaSet) {
	t.Helper()
	require.NoError(t, repos.MediaSets.ApplyMediaSetsPage(context.Background(), models.SyncCloudOnly, params, sets,
		models.ResumePoint{Token: models.SyncComplete, Authority: params.Authority}))
}

func TestMediaSetsTargetKey(t *testing.T) {
	key := MediaSetsTargetKey(models.MediaSetsSyncParams{
		CategoryID: "people",
		Authority:  "cloud.a",
		MimeTypes:  []string{"Video/MP4", "image/png"},
	})
	assert.Equal(t, "people|cloud.a|image/png video/mp4", key)

	// a different mime filter is a different paging cursor
	other := MediaSetsTargetKey(models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"})
	assert.NotEqual(t, key, other)
}

func TestApplyMediaSetsPage_ReapplyPreservesPickerIDAndResume(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	params := models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"}

	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a", DisplayName: "Rex"})

	sets, err := repos.MediaSets.ListMediaSets(ctx, "people", "cloud.a")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	pickerID := sets[0].PickerID
	require.NotZero(t, pickerID)

	// pulling contents stores an inline resume token on the set
	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, pickerID, models.SyncCloudOnly,
		[]models.MediaInMediaSetItem{{CloudID: "c1"}}, models.ResumePoint{Token: "page-2", Authority: "cloud.a"}))

	// the set arrives again in a later metadata pull
	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a", DisplayName: "Rex renamed"})

	got, err := repos.MediaSets.GetMediaSet(ctx, pickerID)
	require.NoError(t, err)
	assert.Equal(t, pickerID, got.PickerID, "re-synced metadata must not reassign the picker id")
	assert.Equal(t, "Rex", got.DisplayName, "existing row wins")
	assert.Equal(t, models.ResumePoint{Token: "page-2", Authority: "cloud.a"}, got.Resume, "contents paging survives a metadata re-pull")
}

func TestGetMediaSet_NotFound(t *testing.T) {
	repos, _ := newTestRepos(t)

	_, err := repos.MediaSets.GetMediaSet(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMediaSetNotFound)
}

func TestApplyMediaInMediaSetPage_UnknownSet(t *testing.T) {
	repos, _ := newTestRepos(t)

	err := repos.MediaSets.ApplyMediaInMediaSetPage(context.Background(), 999, models.SyncCloudOnly, nil,
		models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"})
	assert.ErrorIs(t, err, ErrMediaSetNotFound)
}

func TestApplyMediaInMediaSetPage_ReapplyIsIdempotent(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	params := models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"}

	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a"})
	sets, err := repos.MediaSets.ListMediaSets(ctx, "people", "cloud.a")
	require.NoError(t, err)
	pickerID := sets[0].PickerID

	items := []models.MediaInMediaSetItem{{LocalID: "l1"}, {CloudID: "c1"}}
	resume := models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}
	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, pickerID, models.SyncCloudOnly, items, resume))
	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, pickerID, models.SyncCloudOnly, items, resume))

	assert.Equal(t, 2, countRows(t, db, "media_in_media_set"))
}

func TestClearMediaInMediaSet(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	params := models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"}

	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a"})
	sets, err := repos.MediaSets.ListMediaSets(ctx, "people", "cloud.a")
	require.NoError(t, err)
	pickerID := sets[0].PickerID

	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, pickerID, models.SyncCloudOnly,
		[]models.MediaInMediaSetItem{{LocalID: "l1"}, {CloudID: "c1"}},
		models.ResumePoint{Token: "page-2", Authority: "cloud.a"}))

	require.NoError(t, repos.MediaSets.ClearMediaInMediaSet(ctx, pickerID, models.SyncCloudOnly))

	assert.Equal(t, 1, countRows(t, db, "media_in_media_set"), "local membership rows stay")

	got, err := repos.MediaSets.GetMediaSet(ctx, pickerID)
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{}, got.Resume)
}

func TestClearMediaSets_CascadesAndForgetsResume(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	params := models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"}

	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a"})
	sets, err := repos.MediaSets.ListMediaSets(ctx, "people", "cloud.a")
	require.NoError(t, err)
	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, sets[0].PickerID, models.SyncCloudOnly,
		[]models.MediaInMediaSetItem{{CloudID: "c1"}}, models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}))

	// a second category is untouched by the clear
	otherParams := models.MediaSetsSyncParams{CategoryID: "places", Authority: "cloud.a"}
	applyTestMediaSets(t, repos, otherParams, models.MediaSet{MediaSetID: "set-2", Authority: "cloud.a"})

	require.NoError(t, repos.MediaSets.ClearMediaSets(ctx, models.SyncCloudOnly, params))

	assert.Equal(t, 1, countRows(t, db, "media_set"))
	assert.Equal(t, 0, countRows(t, db, "media_in_media_set"), "membership rows cascade with their set")

	resume, err := repos.Media.GetResumePoint(ctx, models.DomainMediaSets, models.SyncCloudOnly, MediaSetsTargetKey(params))
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{}, resume)

	otherResume, err := repos.Media.GetResumePoint(ctx, models.DomainMediaSets, models.SyncCloudOnly, MediaSetsTargetKey(otherParams))
	require.NoError(t, err)
	assert.True(t, otherResume.Complete())
}

func TestClearAllMediaSetData(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	params := models.MediaSetsSyncParams{CategoryID: "people", Authority: "cloud.a"}

	applyTestMediaSets(t, repos, params, models.MediaSet{MediaSetID: "set-1", Authority: "cloud.a"})
	sets, err := repos.MediaSets.ListMediaSets(ctx, "people", "cloud.a")
	require.NoError(t, err)
	require.NoError(t, repos.MediaSets.ApplyMediaInMediaSetPage(ctx, sets[0].PickerID, models.SyncCloudOnly,
		[]models.MediaInMediaSetItem{{CloudID: "c1"}}, models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}))

	require.NoError(t, repos.MediaSets.ClearAllMediaSetData(ctx))

	assert.Equal(t, 0, countRows(t, db, "media_set"))
	assert.Equal(t, 0, countRows(t, db, "media_in_media_set"))

	resume, err := repos.Media.GetResumePoint(ctx, models.DomainMediaSets, models.SyncCloudOnly, MediaSetsTargetKey(params))
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{}, resume)
}
