// Package dateutils provides the calendar-date helpers shared by the engine:
// parsing ledger dates, truncating to civil days and measuring day distances.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date layouts accepted from ledger feeds.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutRFC3339  = time.RFC3339
)

// CommonFormats is the ordered list of layouts tried by ParseDate. ISO comes
// first so that ambiguous inputs resolve the same way on every run.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutRFC3339,
	DateLayoutFull,
	DateLayoutEuropean,
	DateLayoutUS,
	"2006/01/02",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate parses a date string using CommonFormats and returns it truncated
// to a civil day in UTC, along with the layout that matched.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return CivilDay(t), layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseTimestamp parses an ingestion timestamp, keeping the time component.
func ParseTimestamp(s string) (time.Time, error) {
	s = CleanDateString(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayoutFull, DateLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// CivilDay drops the time-of-day and location, keeping the calendar date as
// seen in the value's own location.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	diff := CivilDay(a).Sub(CivilDay(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return CivilDay(a).Equal(CivilDay(b))
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// ToUSDate formats a date as MM/DD/YYYY, the layout QuickBooks and Xero import.
func ToUSDate(date time.Time) string {
	return date.Format(DateLayoutUS)
}

// CleanDateString trims and collapses whitespace in a date string.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
