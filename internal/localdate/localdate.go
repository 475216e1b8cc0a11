// Package localdate converts UTC instants to calendar dates as observed in a
// viewer's IANA timezone. Sales are stored in UTC but reports must bucket by
// the restaurant's local day, so a transaction at 23:30Z can belong to the
// following local date.
package localdate

import (
	"time"
)

// DayKeyFormat is the bucket key layout. Lexicographic order of keys equals
// chronological order.
const DayKeyFormat = "2006-01-02"

// Resolve maps an IANA timezone name to a location. An empty or unrecognized
// name falls back to UTC instead of failing; reports for a bad timezone are
// then simply UTC-bucketed rather than erroring out.
func Resolve(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Key returns the local calendar date ("YYYY-MM-DD") of instant in loc.
func Key(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(DayKeyFormat)
}

// StartOfDay returns the UTC instant at which the given local calendar date
// begins in loc.
func StartOfDay(date time.Time, loc *time.Location) time.Time {
	local := date.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

// EndOfDay returns the UTC instant of 23:59:59.999 of the given local
// calendar date in loc.
func EndOfDay(date time.Time, loc *time.Location) time.Time {
	return StartOfDay(date, loc).Add(24*time.Hour - time.Millisecond)
}

// ParseKey parses a "YYYY-MM-DD" string as midnight of that date in loc.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyFormat, key, loc)
}

// WithinKeys reports whether the local date key of instant falls inside the
// inclusive [fromKey, toKey] range. Keys compare correctly as strings.
func WithinKeys(instant time.Time, loc *time.Location, fromKey, toKey string) bool {
	key := Key(instant, loc)
	return key >= fromKey && key <= toKey
}
