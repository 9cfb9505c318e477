// Package timeutil provides calendar-day utilities for Lingo Learning Backend.
// Streaks and subscription expiry compare calendar dates, not elapsed hours:
// activity at 23:59 and 00:01 the next day count as consecutive days.
// All comparisons are done in UTC. No external dependencies.
package timeutil

import "time"

// DateOnly truncates a time to the start of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the UTC calendar day of t.
func EndOfDay(t time.Time) time.Time {
	return DateOnly(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// NextDay reports whether t2 falls on the calendar day right after t1.
func NextDay(t1, t2 time.Time) bool {
	return SameDay(DateOnly(t1).AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole calendar days from t1 to t2.
// Negative when t2 is before t1.
func DaysBetween(t1, t2 time.Time) int {
	d1 := DateOnly(t1)
	d2 := DateOnly(t2)
	return int(d2.Sub(d1).Hours() / 24)
}

// IsToday reports whether t falls on the same calendar day as now.
func IsToday(t, now time.Time) bool {
	return SameDay(t, now)
}

// IsYesterday reports whether t falls on the calendar day before now.
func IsYesterday(t, now time.Time) bool {
	return SameDay(t, DateOnly(now).AddDate(0, 0, -1))
}

// WithinLastDays reports whether t falls on one of the last n calendar days,
// counting today as day one. WithinLastDays(t, now, 2) is true for today
// and yesterday - the recency window of the current-streak leaderboard.
func WithinLastDays(t, now time.Time, n int) bool {
	if n <= 0 {
		return false
	}
	diff := DaysBetween(t, now)
	return diff >= 0 && diff < n
}

// AddDays returns t shifted by n calendar days, preserving the time of day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04:05"
)

// FormatDateStr formats a time as a UTC date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) as a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}
