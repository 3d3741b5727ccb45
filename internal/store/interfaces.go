package store

import (
	"context"

	"github.com/pkazmin/go-media-cache/models"
)

// MediaRepository persists the main media grid and per-album membership,
// along with the resume state of their syncs.
type MediaRepository interface {
	// ApplyMediaPage writes one fetched page of media rows and the resume
	// point that follows it in a single transaction.
	ApplyMediaPage(ctx context.Context, source models.SyncSource, items []models.MediaItem, resume models.ResumePoint) error

	// ApplyAlbumMediaPage writes one fetched page of album membership rows
	// and the album's resume point in a single transaction.
	ApplyAlbumMediaPage(ctx context.Context, albumID string, source models.SyncSource, items []models.AlbumMediaItem, resume models.ResumePoint) error

	// ClearMedia removes all media rows originating from the given source
	// role and forgets the matching resume point, in a single transaction.
	ClearMedia(ctx context.Context, source models.SyncSource) error

	// ClearAlbumMedia does the same for one album's membership rows.
	ClearAlbumMedia(ctx context.Context, albumID string, source models.SyncSource) error

	// ClearAllAlbumMedia drops every album membership row and all album
	// resume state. Used by the periodic album cache reset.
	ClearAllAlbumMedia(ctx context.Context) error

	// GetResumePoint returns the stored continuation state for a sync target.
	// A target that was never synced yields a zero ResumePoint and no error.
	GetResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string) (models.ResumePoint, error)

	// SetResumePoint stores the continuation state for a sync target.
	SetResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string, resume models.ResumePoint) error

	// ClearResumePoint forgets the continuation state for a sync target.
	ClearResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string) error
}

// SearchRepository persists search requests, their result rows, suggestions
// and search history.
type SearchRepository interface {
	// SaveSearchRequest persists the request and fills in its surrogate ID.
	// If an equal logical request already exists its ID is returned instead
	// and no new row is created.
	SaveSearchRequest(ctx context.Context, req models.SearchRequest) (int64, error)

	// GetSearchRequest loads a persisted request by its surrogate ID,
	// reconstructing the concrete variant. Returns
	// [ErrSearchRequestNotFound] when no such row exists.
	GetSearchRequest(ctx context.Context, id int64) (models.SearchRequest, error)

	// ApplySearchResultsPage writes one fetched page of result rows and the
	// request's per-role resume point in a single transaction.
	ApplySearchResultsPage(ctx context.Context, requestID int64, source models.SyncSource, items []models.SearchResultItem, resume models.ResumePoint) error

	// ClearSearchResume forgets the per-role resume state of one request.
	ClearSearchResume(ctx context.Context, requestID int64, source models.SyncSource) error

	// ClearObsoleteResults removes the result rows a given source role
	// produced for one request, together with that role's resume state,
	// in a single transaction.
	ClearObsoleteResults(ctx context.Context, requestID int64, source models.SyncSource) error

	// ClearAllSearchData drops every request, result row, suggestion and
	// history entry. Used when the cloud provider changes identity.
	ClearAllSearchData(ctx context.Context) error

	// ClearCloudSearchData drops cloud-originated result rows, cloud resume
	// state and cloud suggestions while keeping local data intact.
	ClearCloudSearchData(ctx context.Context, cloudAuthority string) error

	// SaveSuggestions upserts a batch of suggestion rows.
	SaveSuggestions(ctx context.Context, suggestions []models.SearchSuggestion) error

	// GetSuggestions returns up to limit suggestion rows, newest first.
	GetSuggestions(ctx context.Context, limit int) ([]models.SearchSuggestion, error)

	// SaveSearchHistory upserts one remembered search.
	SaveSearchHistory(ctx context.Context, entry models.SearchHistoryEntry) error

	// GetSearchHistory returns up to limit history entries, newest first.
	GetSearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error)

	// PruneExpired deletes suggestion and history rows created before
	// cutoffMS. It returns the number of rows removed.
	PruneExpired(ctx context.Context, cutoffMS int64) (int64, error)
}

// MediaSetRepository persists media sets (categorised groups fetched from a
// provider) and their membership rows.
type MediaSetRepository interface {
	// ApplyMediaSetsPage writes one fetched page of media sets for a
	// category and the category's resume point in a single transaction.
	ApplyMediaSetsPage(ctx context.Context, source models.SyncSource, params models.MediaSetsSyncParams, sets []models.MediaSet, resume models.ResumePoint) error

	// GetMediaSet loads one set by its surrogate picker ID. Returns
	// [ErrMediaSetNotFound] when no such row exists.
	GetMediaSet(ctx context.Context, pickerID int64) (models.MediaSet, error)

	// ListMediaSets returns all cached sets of a category and authority.
	ListMediaSets(ctx context.Context, categoryID, authority string) ([]models.MediaSet, error)

	// ApplyMediaInMediaSetPage writes one fetched page of membership rows
	// and the owning set's inline resume point in a single transaction.
	ApplyMediaInMediaSetPage(ctx context.Context, pickerID int64, source models.SyncSource, items []models.MediaInMediaSetItem, resume models.ResumePoint) error

	// ClearMediaInMediaSet removes the membership rows a source role
	// produced for one set and resets the set's resume point.
	ClearMediaInMediaSet(ctx context.Context, pickerID int64, source models.SyncSource) error

	// ClearMediaSets removes one category pull's sets (their membership
	// rows cascade) and forgets the category's resume point.
	ClearMediaSets(ctx context.Context, source models.SyncSource, params models.MediaSetsSyncParams) error

	// ClearAllMediaSetData drops every set, membership row and media-set
	// resume state. Used when the cloud provider changes identity.
	ClearAllMediaSetData(ctx context.Context) error
}

// GrantsRepository persists package access grants. Grants are replaced
// wholesale on every sync rather than merged.
type GrantsRepository interface {
	// ReplaceGrants atomically swaps the full grant set.
	ReplaceGrants(ctx context.Context, grants []models.AccessGrant) error

	// GetGrants returns the grants held by one package.
	GetGrants(ctx context.Context, packageUID int) ([]models.AccessGrant, error)
}

// Pager serves keyset-paginated reads over the cached media tables. All
// reads share the composite sort key (date_taken_ms DESC, id DESC).
type Pager interface {
	// MediaPage reads one page of the main media grid.
	MediaPage(ctx context.Context, q MediaQuery) (models.MediaPage, error)

	// AlbumMediaPage reads one page of an album's contents.
	AlbumMediaPage(ctx context.Context, albumID string, q MediaQuery) (models.MediaPage, error)

	// SearchResultsPage reads one page of a search request's results.
	SearchResultsPage(ctx context.Context, requestID int64, q MediaQuery) (models.MediaPage, error)

	// MediaInMediaSetPage reads one page of a media set's contents.
	MediaInMediaSetPage(ctx context.Context, pickerID int64, q MediaQuery) (models.MediaPage, error)
}
