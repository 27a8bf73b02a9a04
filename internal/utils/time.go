package utils

import (
	"errors"
	"strings"
	"time"
)

const (
	layoutDateTimeMinute = "2006-01-02 15:04"
	layoutDateTime       = "2006-01-02 15:04:05"
)

var errEmptyTime = errors.New("empty time")

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDepartureTime accepts RFC 3339 or "YYYY-MM-DD HH:MM[:SS]" (UTC) and
// truncates to the minute so the same departure always yields the same key.
func ParseDepartureTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTime
	}
	var (
		t   time.Time
		err error
	)
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDateTimeMinute} {
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Minute), nil
		}
	}
	return time.Time{}, err
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM" in UTC.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(layoutDateTimeMinute)
}
