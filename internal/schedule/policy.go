package schedule

// Policy decides what happens when work is enqueued under a name that
// already has pending or running work.
type Policy int

const (
	// PolicyKeep drops the new work and lets the existing work finish.
	// Used by proactive and periodic syncs, where a sync already underway
	// makes the new request redundant.
	PolicyKeep Policy = iota

	// PolicyReplace cancels the existing work and enqueues the new work.
	// Used by cache resets, which must supersede whatever sync is running
	// against soon-to-be-invalid state.
	PolicyReplace

	// PolicyAppendOrReplace appends the new work after running work, or
	// replaces work that is still waiting to start. Used by reactive syncs,
	// where the user action must be honored even if a sync is mid-flight.
	PolicyAppendOrReplace
)

// String implements fmt.Stringer for log fields.
func (p Policy) String() string {
	switch p {
	case PolicyKeep:
		return "keep"
	case PolicyReplace:
		return "replace"
	case PolicyAppendOrReplace:
		return "append_or_replace"
	default:
		return "unknown"
	}
}
