package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/go-media-cache/internal/notify"
	"github.com/pkazmin/go-media-cache/models"
)

func TestResetAlbumMediaCache(t *testing.T) {
	ctx := context.Background()
	client := newLocalMock(t)
	f := newWorkerFixture(t, client)

	require.NoError(t, f.repos.Media.ApplyAlbumMediaPage(ctx, "album-1", models.SyncLocalOnly,
		[]models.AlbumMediaItem{{LocalID: "l1"}},
		models.ResumePoint{Token: models.SyncComplete, Authority: "local"}))

	var paths []string
	unsubscribe := f.bus.Subscribe(func(path string) { paths = append(paths, path) })
	defer unsubscribe()

	require.NoError(t, f.workers.ResetAlbumMediaCache(ctx))

	resume, err := f.repos.Media.GetResumePoint(ctx, models.DomainAlbumMedia, models.SyncLocalOnly, "album-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResumePoint{}, resume, "the next pull starts from scratch")
	assert.Contains(t, paths, notify.Path(models.DomainAlbumMedia))
}

func TestResetAllSearchCache(t *testing.T) {
	ctx := context.Background()
	client := newLocalMock(t)
	f := newWorkerFixture(t, client)

	reqID, err := f.repos.Search.SaveSearchRequest(ctx, &models.SearchTextRequest{SearchText: "beach"})
	require.NoError(t, err)

	require.NoError(t, f.workers.ResetAllSearchCache(ctx))

	_, err = f.repos.Search.GetSearchRequest(ctx, reqID)
	assert.Error(t, err)
}

func TestPruneExpiredSearchData(t *testing.T) {
	ctx := context.Background()
	client := newLocalMock(t)
	f := newWorkerFixture(t, client)

	old := time.Now().Add(-48 * time.Hour).UnixMilli()
	fresh := time.Now().UnixMilli()
	require.NoError(t, f.repos.Search.SaveSuggestions(ctx, []models.SearchSuggestion{
		{Authority: "local", MediaSetID: "set-old", SearchText: "old", Type: models.SuggestionText, CreatedAtMS: old},
		{Authority: "local", MediaSetID: "set-new", SearchText: "new", Type: models.SuggestionText, CreatedAtMS: fresh},
	}))

	// the fixture's TTL is well under 48 hours
	require.NoError(t, f.workers.PruneExpiredSearchData(ctx))

	suggestions, err := f.repos.Search.GetSuggestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "new", suggestions[0].SearchText)
}
