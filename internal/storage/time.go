package storage

import (
	"time"

	"github.com/go-faster/errors"
)

// zonelessLayout matches ISO-8601 timestamps written without a zone
// designator. Fractional seconds are accepted when parsing.
const zonelessLayout = "2006-01-02T15:04:05"

// FormatTime renders t as RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime accepts RFC 3339 timestamps and zone-less ISO-8601 timestamps,
// which are interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(zonelessLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}
