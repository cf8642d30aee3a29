// Package normalize converts platform-specific values into comparable forms.
package normalize

import (
	"database/sql"
	"time"
)

// PlatformEpoch is the reference point of Messages timestamps (2001-01-01 UTC).
var PlatformEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ToAbsoluteTime converts nanoseconds since PlatformEpoch into calendar time.
// A zero timestamp means "unknown" and reports false instead of the epoch.
func ToAbsoluteTime(ts int64) (time.Time, bool) {
	if ts == 0 {
		return time.Time{}, false
	}
	return PlatformEpoch.Add(time.Duration(ts)), true
}

// FromNullTimestamp is ToAbsoluteTime for nullable columns.
func FromNullTimestamp(ts sql.NullInt64) (time.Time, bool) {
	if !ts.Valid {
		return time.Time{}, false
	}
	return ToAbsoluteTime(ts.Int64)
}
