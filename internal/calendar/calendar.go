// Package calendar holds the working-day and academic-year arithmetic shared
// by the inference and stats packages. Everything here is a pure function of
// its arguments; holidays are out of scope, a working day is simply Mon-Fri.
package calendar

import "time"

// AcademicYearStartMonth is when the institute year rolls over.
const AcademicYearStartMonth = time.February

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkingDaysBetween counts Mon-Fri dates in [start, end] inclusive.
// Returns 0 when end is before start, never a negative count.
func WorkingDaysBetween(start, end time.Time) int {
	start, end = Date(start), Date(end)
	if end.Before(start) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			count++
		}
	}
	return count
}

// MonthBoundaries returns the first and last day of the given month,
// honoring month length and leap years.
func MonthBoundaries(year int, month time.Month) (first, last time.Time) {
	first = time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// AcademicYearStart returns February 1st of the academic year containing ref.
// In January the year started the previous February.
func AcademicYearStart(ref time.Time) time.Time {
	year := ref.Year()
	if ref.Month() == time.January {
		year--
	}
	return time.Date(year, AcademicYearStartMonth, 1, 0, 0, 0, 0, ref.Location())
}

// MinDate returns the earlier of a and b.
func MinDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
