package provider

import (
	"context"

	"github.com/pkazmin/go-media-cache/models"
)

// PageRequest carries the paging inputs shared by every fetch operation.
// An empty ResumeToken asks for the first page; any other value must be a
// token previously returned by the same authority.
type PageRequest struct {
	PageSize    int
	ResumeToken string
	MimeTypes   []string
}

// MediaPage is one fetched page of the main media feed plus its
// continuation state. NextToken is [models.SyncComplete] once the feed is
// exhausted. CollectionID names the provider's current media collection
// generation; a change of collection invalidates all previous tokens.
type MediaPage struct {
	Items        []models.MediaItem
	NextToken    string
	CollectionID string
}

// AlbumMediaPage is one fetched page of an album's contents.
type AlbumMediaPage struct {
	Items        []models.AlbumMediaItem
	NextToken    string
	CollectionID string
}

// SearchResultsPage is one fetched page of search results.
type SearchResultsPage struct {
	Items        []models.SearchResultItem
	NextToken    string
	CollectionID string
}

// MediaSetsPage is one fetched page of media sets in a category.
type MediaSetsPage struct {
	Sets         []models.MediaSet
	NextToken    string
	CollectionID string
}

// MediaInMediaSetPage is one fetched page of a media set's contents.
type MediaInMediaSetPage struct {
	Items        []models.MediaInMediaSetItem
	NextToken    string
	CollectionID string
}

// SearchQuery identifies what a search pull is for: either free text or a
// provider suggestion backed by a media set.
type SearchQuery struct {
	Text           string
	MediaSetID     string
	SuggestionType models.SuggestionType
}

// Client is the contract every source authority implements. All fetches are
// cursor-based: the caller hands back the token from the previous page and
// the authority decides what the next page contains.
type Client interface {
	// Authority returns the stable identity of this source.
	Authority() string

	// FetchMedia pulls one page of the main media feed.
	FetchMedia(ctx context.Context, req PageRequest) (MediaPage, error)

	// FetchAlbumMedia pulls one page of an album's contents.
	FetchAlbumMedia(ctx context.Context, albumID string, req PageRequest) (AlbumMediaPage, error)

	// SearchMedia pulls one page of results for a search query.
	SearchMedia(ctx context.Context, query SearchQuery, req PageRequest) (SearchResultsPage, error)

	// FetchMediaSets pulls one page of the media sets in a category.
	FetchMediaSets(ctx context.Context, categoryID string, req PageRequest) (MediaSetsPage, error)

	// FetchMediaInMediaSet pulls one page of a media set's contents.
	FetchMediaInMediaSet(ctx context.Context, mediaSetID string, req PageRequest) (MediaInMediaSetPage, error)

	// FetchSuggestions returns up to limit search suggestions for a prefix.
	// Suggestions are not paginated.
	FetchSuggestions(ctx context.Context, prefix string, limit int) ([]models.SearchSuggestion, error)

	// FetchGrants returns the full current grant set. Grants are not
	// paginated; each pull replaces the cached set wholesale.
	FetchGrants(ctx context.Context) ([]models.AccessGrant, error)
}
