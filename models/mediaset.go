package models

// MediaSet groups media items under a (category, authority, mime-filter)
// key, e.g. one people-and-pets cluster or one provider album category.
// The set owns a resume token for the sync of its contents.
type MediaSet struct {
	// PickerID is the surrogate cache key referenced by membership rows.
	PickerID int64

	// CategoryID is the provider category the set belongs to.
	CategoryID string

	// MediaSetID is the provider-side identifier of the set.
	MediaSetID string

	// Authority is the source authority that produced the set.
	Authority string

	// MimeTypes is the normalized mime-type filter the set was fetched
	// under (see NormalizedMimeTypes).
	MimeTypes string

	DisplayName  string
	CoverMediaID string

	// Resume holds the continuation state for syncing this set's contents.
	Resume ResumePoint
}

// MediaInMediaSetItem is one membership row referencing the owning set by
// its surrogate PickerID.
type MediaInMediaSetItem struct {
	ID               int64
	MediaSetPickerID int64
	LocalID          string
	CloudID          string
}

// MediaSetsSyncParams carries the inputs of a media-sets sync request:
// which category to pull from which authority, under which mime filter.
type MediaSetsSyncParams struct {
	CategoryID string
	Authority  string
	MimeTypes  []string
}

// MediaInMediaSetSyncParams carries the inputs of a media-set-contents
// sync request.
type MediaInMediaSetSyncParams struct {
	MediaSetPickerID int64
	Authority        string
}
