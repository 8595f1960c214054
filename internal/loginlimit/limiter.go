// Package loginlimit tracks failed sign-in attempts per email address and
// locks an address out after too many failures in a window. This guards
// credentials; raw request-volume limiting is handled separately by the
// per-IP middleware.
package loginlimit

import (
	"context"
	"time"
)

// Defaults for the lockout policy. The auth service passes these through
// from config; they are exported so tests and tools agree on the policy.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Result reports the lockout state for one email address.
type Result struct {
	// Allowed is false while the address is locked out.
	Allowed bool

	// Attempts is the number of failures recorded in the current window.
	Attempts int

	// RemainingMinutes is how long until the lockout lifts, rounded up.
	// Zero when Allowed is true.
	RemainingMinutes int
}

// Limiter tracks failed sign-in attempts per email. Implementations must
// be safe for concurrent use. Emails are expected to be normalized
// (lowercased, trimmed) by the caller.
type Limiter interface {
	// Check reports whether a sign-in attempt for the email may proceed.
	// A full window elapsing since the most recent failure clears the
	// record.
	Check(ctx context.Context, email string) (Result, error)

	// RecordFailure counts one failed attempt and restarts the window.
	// Failures spaced less than a window apart keep accumulating, so a
	// slow brute force still locks.
	RecordFailure(ctx context.Context, email string) error

	// Reset clears the record for the email, lifting any lockout
	// immediately. Called on successful sign-in.
	Reset(ctx context.Context, email string) error
}

// remainingMinutes converts time-until-unlock into whole minutes, rounded
// up so the user-facing message never understates the wait.
func remainingMinutes(until time.Duration) int {
	if until <= 0 {
		return 0
	}
	mins := int(until / time.Minute)
	if until%time.Minute != 0 {
		mins++
	}
	return mins
}
