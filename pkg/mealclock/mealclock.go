// Package mealclock holds the single authoritative meal-request lock rule.
//
// Deadlines and clock readings are zero-padded "HH:MM" strings in the local
// wall-clock time of the server; because the format is fixed width, plain
// lexicographic comparison is equivalent to numeric time-of-day comparison.
// There is deliberately no timezone conversion and no handling for deadlines
// that wrap past midnight: the rule re-arms implicitly when the clock resets
// below the deadline on the next day. Deadline strings are not validated
// anywhere, so malformed values simply follow string comparison rules.
package mealclock

import (
	"fmt"
	"time"
)

// HHMM reduces a point in time to the zero-padded "HH:MM" wall-clock form
// used for deadline comparison.
func HHMM(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Locked reports whether a meal request arriving at the given clock reading
// must be rejected. The boundary is inclusive: at exactly the deadline the
// request is already locked. An empty deadline never locks.
func Locked(deadline, now string) bool {
	if deadline == "" {
		return false
	}
	return now >= deadline
}

// LockedAt is a convenience wrapper evaluating Locked against a time.Time.
func LockedAt(deadline string, at time.Time) bool {
	return Locked(deadline, HHMM(at))
}
