// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package models

import (
	"sort"
	"strings"
)

// SuggestionType classifies where a search suggestion came from.
type SuggestionType string

const (
	SuggestionText    SuggestionType = "TEXT"
	SuggestionFace    SuggestionType = "FACE"
	SuggestionAlbum   SuggestionType = "ALBUM"
	SuggestionHistory SuggestionType = "HISTORY"
)

// SearchRequest is the sum type over the two kinds of logical search
// queries: a free-text search (SearchTextRequest) and a suggestion-derived
// search (SearchSuggestionRequest). Every place where behavior differs
// between the two matches exhaustively on the concrete type and treats any
// other implementation as a programming error.
//
// Two requests are the same logical request iff all of {mime-type set
// (order-independent, case-insensitive), search text, media-set id,
// suggestion authority, suggestion type} are equal under placeholder
// normalization.
type SearchRequest interface {
	// Base returns the fields shared by both variants.
	Base() *SearchRequestBase

	// searchRequest restricts the implementations to this package.
	searchRequest()
}

// SearchRequestBase carries the fields common to both request variants,
// including the independent local and cloud resume state.
type SearchRequestBase struct {
	// ID is the surrogate key of the persisted request, zero until saved.
	ID int64

	// MimeTypes filters the results; nil means no filter.
	MimeTypes []string

	// Local and Cloud hold the per-role resume token and the authority it
	// was issued against.
	Local ResumePoint
	Cloud ResumePoint
}

// SearchTextRequest is a plain free-text search query.
type SearchTextRequest struct {
	SearchRequestBase

	// SearchText is the raw user-entered query text.
	SearchText string
}

func (r *SearchTextRequest) Base() *SearchRequestBase { return &r.SearchRequestBase }
func (r *SearchTextRequest) searchRequest()           {}

// SearchSuggestionRequest is a search derived from a provider suggestion.
// It carries the backing media-set id, the authority that produced the
// suggestion and the suggestion type in addition to the display text.
type SearchSuggestionRequest struct {
	SearchRequestBase

	// SearchText is the display text of the suggestion; may be empty for
	// suggestions that are purely visual (e.g. faces).
	SearchText string

	// MediaSetID is the provider-side media set backing the suggestion.
	MediaSetID string

	// SuggestionAuthority is the authority that issued the suggestion.
	SuggestionAuthority string

	// Type is the kind of suggestion this request was created from.
	Type SuggestionType
}

func (r *SearchSuggestionRequest) Base() *SearchRequestBase { return &r.SearchRequestBase }
func (r *SearchSuggestionRequest) searchRequest()           {}

// NormalizedMimeTypes renders a mime-type list in the canonical persisted
// form: lower-cased, sorted, space-joined. Order and case differences
// between two logically equal filters disappear under this form. An empty
// list renders as the empty string, which doubles as the placeholder for
// "no filter" in uniqueness comparisons.
func NormalizedMimeTypes(mimeTypes []string) string {
	if len(mimeTypes) == 0 {
		return ""
	}

	normalized := make([]string, 0, len(mimeTypes))
	for _, m := range mimeTypes {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			normalized = append(normalized, m)
		}
	}
	sort.Strings(normalized)

	return strings.Join(normalized, " ")
}

// SearchSuggestion is one cached suggestion row offered to the user before
// they type a full query. Suggestion rows carry a TTL and are pruned
// independently of sync success.
type SearchSuggestion struct {
	ID           int64
	Authority    string
	MediaSetID   string
	SearchText   string
	Type         SuggestionType
	CoverMediaID string
	CreatedAtMS  int64
}

// SearchHistoryEntry is one remembered past search. History rows carry a
// TTL and are pruned independently of sync success.
type SearchHistoryEntry struct {
	ID          int64
	SearchText  string
	MediaSetID  string
	Authority   string
	Type        SuggestionType
	CreatedAtMS int64
}

// SearchResultItem links a persisted search request to one media identity
// in the cache.
type SearchResultItem struct {
	ID              int64
	SearchRequestID int64
	LocalID         string
	CloudID         string
}
