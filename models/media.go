// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package models

// MediaItem is a single cached media row. An item carries an optional local
// identifier and an optional cloud identifier, never both populated from
// the same source page, but a single logical item may be known by both once
// a cloud row cross-references a pre-existing local row.
type MediaItem struct {
	// ID is the surrogate cache key, assigned by the cache store.
	ID int64 `json:"id"`

	// LocalID identifies the item at the local provider. Empty when the row
	// originates from a cloud provider without a local counterpart.
	LocalID string `json:"local_id,omitempty"`

	// CloudID identifies the item at the cloud provider. Empty for
	// local-only rows.
	CloudID string `json:"cloud_id,omitempty"`

	// Authority is the source authority that produced this row.
	Authority string `json:"authority"`

	// DateTakenMS is the capture timestamp in Unix milliseconds. Together
	// with ID it forms the stable composite sort key used for keyset
	// pagination (date_taken_ms DESC, id DESC).
	DateTakenMS int64 `json:"date_taken_ms"`

	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// IsLocalRow reports whether the row was produced by the local provider.
func (m MediaItem) IsLocalRow() bool { return m.LocalID != "" && m.CloudID == "" }

// AlbumMediaItem is one album-membership row: a media identity scoped to an
// album. The local/cloud identifier pair follows the same rules as MediaItem.
type AlbumMediaItem struct {
	ID      int64  `json:"id"`
	AlbumID string `json:"album_id"`
	LocalID string `json:"local_id,omitempty"`
	CloudID string `json:"cloud_id,omitempty"`
}

// PageKey is the keyset-pagination boundary: the composite sort key of a
// media row. A nil *PageKey means "no further page in this direction".
type PageKey struct {
	DateTakenMS int64 `json:"date_taken_ms"`
	ID          int64 `json:"id"`
}

// MediaPage is one page of a paginated cache read along with the boundary
// keys for the adjacent pages.
type MediaPage struct {
	Items []MediaItem `json:"items"`

	// NextKey is the sort key of the first row after this page, or nil when
	// the page is the last one (or the query was unbounded).
	NextKey *PageKey `json:"next_key,omitempty"`

	// PrevKey is the sort key of the last row before this page, or nil when
	// the page is the first one.
	PrevKey *PageKey `json:"prev_key,omitempty"`
}
