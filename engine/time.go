package engine

import "time"

// =============================================================================
// MONTH ARITHMETIC - Whole-calendar-month granularity
// =============================================================================
//
// All durations in this system are whole calendar months computed from
// year and month only: a contract starting on the 31st and a check on
// the 1st of a month N months later still count N months. This matches
// how the rule tables are written and is preserved deliberately; do not
// "fix" it with day-level arithmetic.

// MonthsBetween returns the number of calendar months from a to b,
// ignoring day-of-month. 0 when a is after b (no negative durations).
func MonthsBetween(a, b time.Time) int {
	if a.After(b) {
		return 0
	}
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// AddMonths adds n calendar months, delegating to time.AddDate
// normalization for month-end overflow.
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// StartOfMonth truncates to the first day of t's month, 00:00 UTC.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SameMonth reports whether two dates fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Date is a convenience constructor for whole-day UTC timestamps, the
// granularity every engine input uses.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
