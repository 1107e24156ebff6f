// Package period computes the calendar bucket keys used by the clan
// ledger. Quest progress and weekly scores are keyed by these strings;
// rolling into a new key implicitly resets the visible progress.
package period

import (
	"fmt"
	"time"
)

// DayKey returns the UTC day bucket, e.g. "2025-03-14".
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekKey returns the ISO-8601 week bucket, e.g. "2025-11". Weeks start
// on Monday and week 1 is the week containing the year's first Thursday,
// so the year component can differ from the calendar year near January 1.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}
