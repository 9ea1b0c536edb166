package ports

import "context"

// LockoutTracker counts failed logins per raw identifier and gates attempts once
// the count reaches the threshold.
type LockoutTracker interface {
	// Acquire serializes attempts for identifier. The lock check, the password
	// check and the counter update of one attempt run before release is called.
	// release is idempotent.
	Acquire(ctx context.Context, identifier string) (release func(), err error)
	// IsLocked returns true if the failure count for identifier is at or over the threshold.
	IsLocked(ctx context.Context, identifier string) bool
	// RecordFailure increments the failure count and returns the new value.
	RecordFailure(ctx context.Context, identifier string) uint
	// RecordSuccess resets the failure count for identifier to zero.
	RecordSuccess(ctx context.Context, identifier string)
	// ResetAll clears every counter.
	ResetAll(ctx context.Context)
	// Failures returns the current failure count for identifier.
	Failures(ctx context.Context, identifier string) uint
	// Threshold returns the failure count at which identifiers lock.
	Threshold() uint
}
