// Package timeutil formats and parses the timestamps stored in
// the sessions database. All stored values are RFC3339Nano in UTC.
package timeutil

import (
	"strings"
	"time"
)

// layouts are tried in order by Parse. Session logs written by
// different client versions disagree on fractional seconds and
// zone suffixes.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Format returns t as an RFC3339Nano UTC string, or "" for the
// zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Ptr returns a pointer to Format(t), or nil for the zero time.
// Used for nullable TEXT columns.
func Ptr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := Format(t)
	return &s
}

// Parse parses s with the supported layouts. Timestamps without
// a zone are interpreted as UTC. Returns the zero time and false
// when nothing matches.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FromEpoch converts a numeric epoch value to a time. Values at
// or above 1e12 are treated as milliseconds, smaller values as
// seconds. Non-positive values yield the zero time.
func FromEpoch(v float64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v >= 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// FromMillis converts a millisecond epoch to a UTC time. Zero
// yields the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
