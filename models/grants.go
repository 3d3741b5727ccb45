package models

// AccessGrant records that a package was granted access to one local media
// item. Grants are synced as a single-shot wholesale pull: no resume token,
// the new grant set replaces the prior one atomically.
type AccessGrant struct {
	ID         int64
	PackageUID int
	LocalID    string
}
