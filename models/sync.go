package models

// SyncComplete is the sentinel resume token stored once a target has been
// fully synced with its source authority. Any other non-empty token means
// "continue fetching after this point"; an empty token means the sync has
// to start from scratch.
const SyncComplete = "SYNCED"

// Domain identifies an independent resumable-sync lifecycle with its own
// cache partition. Sync state, work deduplication and change notifications
// are all keyed by Domain.
type Domain string

const (
	DomainMedia             Domain = "media"
	DomainAlbumMedia        Domain = "album_media"
	DomainSearchResults     Domain = "search_results"
	DomainSearchSuggestions Domain = "search_suggestions"
	DomainMediaSets         Domain = "media_sets"
	DomainMediaSetContents  Domain = "media_set_contents"
	DomainGrants            Domain = "grants"
)

// SyncSource identifies which provider role(s) a sync operation targets.
type SyncSource int

const (
	// SyncLocalOnly syncs with the local provider only.
	SyncLocalOnly SyncSource = 1

	// SyncCloudOnly syncs with the currently configured cloud provider only.
	SyncCloudOnly SyncSource = 2

	// SyncLocalAndCloud syncs with both providers. Only valid for scheduling
	// entry points; a single worker invocation always runs local-xor-cloud.
	SyncLocalAndCloud SyncSource = 3
)

// String implements fmt.Stringer for log fields.
func (s SyncSource) String() string {
	switch s {
	case SyncLocalOnly:
		return "local"
	case SyncCloudOnly:
		return "cloud"
	case SyncLocalAndCloud:
		return "local+cloud"
	default:
		return "unknown"
	}
}

// IsLocal reports whether the source targets the local provider role.
func (s SyncSource) IsLocal() bool { return s == SyncLocalOnly }

// ResumePoint is the persisted continuation state of one (domain, target,
// source-role) sync: the opaque resume token plus the authority (and its
// collection id, when known) the token was issued against.
//
// A token is only ever valid in combination with its authority. A mismatch
// between the stored authority and the authority in use is a protocol error
// that discards the token and clears the stale rows before restarting.
type ResumePoint struct {
	Token        string
	Authority    string
	CollectionID string
}

// Complete reports whether this target has nothing more to pull.
func (r ResumePoint) Complete() bool { return r.Token == SyncComplete }
