// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/go-media-cache/models"
)

// seedTestMedia stores n local rows with date_taken_ms 1000, 2000, ... so the
// newest row is always "l<n>".
func seedTestMedia(t *testing.T, repos *Repositories, n int) {
	t.Helper()

	items := make([]models.MediaItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, models.MediaItem{
			LocalID:     fmt.Sprintf("l%d", i),
			Authority:   "local",
			DateTakenMS: int64(i) * 1000,
			MimeType:    "image/png",
		})
	}

	require.NoError(t, repos.Media.ApplyMediaPage(context.Background(), models.SyncLocalOnly, items,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))
}

func localIDs(page models.MediaPage) []string {
	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.LocalID)
	}
	return ids
}

func TestMediaPage_KeysetWalkForwardAndBack(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	seedTestMedia(t, repos, 5)

	first, err := repos.Pager.MediaPage(ctx, MediaQuery{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"l5", "l4"}, localIDs(first))
	require.NotNil(t, first.NextKey)
	assert.Nil(t, first.PrevKey, "first page has nothing before it")

	second, err := repos.Pager.MediaPage(ctx, MediaQuery{PageSize: 2, Key: first.NextKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"l3", "l2"}, localIDs(second))
	require.NotNil(t, second.NextKey)
	require.NotNil(t, second.PrevKey)

	last, err := repos.Pager.MediaPage(ctx, MediaQuery{PageSize: 2, Key: second.NextKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, localIDs(last))
	assert.Nil(t, last.NextKey, "short page means the result set is exhausted")

	// walking back via PrevKey lands on the first page again
	back, err := repos.Pager.MediaPage(ctx, MediaQuery{PageSize: 2, Key: second.PrevKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"l5", "l4"}, localIDs(back))
}

func TestMediaPage_TieBreaksByRowID(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	items := []models.MediaItem{
		{LocalID: "older", Authority: "local", DateTakenMS: 1000},
		{LocalID: "newer", Authority: "local", DateTakenMS: 1000},
	}
	require.NoError(t, repos.Media.ApplyMediaPage(ctx, models.SyncLocalOnly, items,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))

	page, err := repos.Pager.MediaPage(ctx, MediaQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "newer", page.Items[0].LocalID, "equal timestamps fall back to insertion order, newest first")
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)
}

func TestMediaPage_UnboundedHasNoKeys(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	seedTestMedia(t, repos, 5)

	page, err := repos.Pager.MediaPage(ctx, MediaQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Nil(t, page.NextKey)
	assert.Nil(t, page.PrevKey)
}

func TestMediaPage_MimeFilter(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	items := []models.MediaItem{
		{LocalID: "photo", Authority: "local", DateTakenMS: 2000, MimeType: "image/png"},
		{LocalID: "clip", Authority: "local", DateTakenMS: 1000, MimeType: "video/mp4"},
	}
	require.NoError(t, repos.Media.ApplyMediaPage(ctx, models.SyncLocalOnly, items,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))

	page, err := repos.Pager.MediaPage(ctx, MediaQuery{MimeTypes: []string{" VIDEO/MP4 "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"clip"}, localIDs(page), "filter values are trimmed and case folded")
}

func TestAlbumMediaPage_ResolvesBothIDSpaces(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	media := []models.MediaItem{
		{LocalID: "l1", Authority: "local", DateTakenMS: 1000},
		{CloudID: "c1", Authority: "cloud.a", DateTakenMS: 2000},
	}
	require.NoError(t, repos.Media.ApplyMediaPage(ctx, models.SyncLocalOnly, media[:1],
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))
	require.NoError(t, repos.Media.ApplyMediaPage(ctx, models.SyncCloudOnly, media[1:],
		models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}))

	members := []models.AlbumMediaItem{
		{LocalID: "l1"},
		{CloudID: "c1"},
		{LocalID: "not-synced-yet"},
	}
	require.NoError(t, repos.Media.ApplyAlbumMediaPage(ctx, "album-1", models.SyncLocalOnly, members,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))

	page, err := repos.Pager.AlbumMediaPage(ctx, "album-1", MediaQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2, "membership rows without a cached media row resolve to nothing")
	assert.Equal(t, "c1", page.Items[0].CloudID)
	assert.Equal(t, "l1", page.Items[1].LocalID)

	// other albums see none of it
	empty, err := repos.Pager.AlbumMediaPage(ctx, "album-2", MediaQuery{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestAlbumMediaPage_PaginatesAcrossTheUnion(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	seedTestMedia(t, repos, 3)

	cloud := []models.MediaItem{{CloudID: "c1", Authority: "cloud.a", DateTakenMS: 4000}}
	require.NoError(t, repos.Media.ApplyMediaPage(ctx, models.SyncCloudOnly, cloud,
		models.ResumePoint{Token: models.SyncComplete, Authority: "cloud.a"}))

	members := []models.AlbumMediaItem{{LocalID: "l1"}, {LocalID: "l2"}, {LocalID: "l3"}, {CloudID: "c1"}}
	require.NoError(t, repos.Media.ApplyAlbumMediaPage(ctx, "album-1", models.SyncLocalOnly, members,
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))

	first, err := repos.Pager.AlbumMediaPage(ctx, "album-1", MediaQuery{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "c1", first.Items[0].CloudID)
	assert.Equal(t, "l3", first.Items[1].LocalID)
	require.NotNil(t, first.NextKey)

	second, err := repos.Pager.AlbumMediaPage(ctx, "album-1", MediaQuery{PageSize: 2, Key: first.NextKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"l2", "l1"}, localIDs(second))
	assert.Nil(t, second.NextKey)
	require.NotNil(t, second.PrevKey)

	back, err := repos.Pager.AlbumMediaPage(ctx, "album-1", MediaQuery{PageSize: 2, Key: second.PrevKey})
	require.NoError(t, err)
	require.Len(t, back.Items, 2)
	assert.Equal(t, "c1", back.Items[0].CloudID)
}
