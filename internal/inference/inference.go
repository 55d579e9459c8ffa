// Package inference derives a full present/absent picture from sparse
// positive presence records. The capture pipeline only ever writes "seen"
// rows; everything else about a day is reconstructed here from the date,
// the clock and the record set, and is never stored.
package inference

import (
	"errors"
	"time"

	"presence/internal/calendar"
)

// CutoffHour is the hour (local time) after which a weekday with no
// presence record is finalized as absent instead of pending.
const CutoffHour = 21

// DayFormat is the canonical key format for per-day lookups.
const DayFormat = "2006-01-02"

// ErrInvalidRange is returned when a ranged query is called with end before
// start. Callers get the error rather than a silently corrected result.
var ErrInvalidRange = errors.New("inference: end date before start date")

// DayStatus classifies a single calendar day for one student.
type DayStatus string

const (
	StatusPresent DayStatus = "PRESENT"
	StatusAbsent  DayStatus = "ABSENT"
	StatusPending DayStatus = "PENDING"
	StatusFuture  DayStatus = "FUTURE"
	StatusWeekend DayStatus = "WEEKEND"
)

// Day is a derived classification for one calendar day. It has no stored
// identity; it is recomputed on every query.
type Day struct {
	Date      time.Time
	Status    DayStatus
	ArrivedAt *time.Time // set only when Status is StatusPresent
}

// Key returns the canonical map key for a date.
func Key(d time.Time) string {
	return d.Format(DayFormat)
}

// Classify derives the status of a single day given the arrival times on
// record. Precedence: future, weekend, present, pending, absent.
func Classify(day time.Time, arrivals map[string]time.Time, now time.Time) Day {
	day = calendar.Date(day)
	today := calendar.Date(now)

	switch {
	case day.After(today):
		// A record for a future date never overrides this.
		return Day{Date: day, Status: StatusFuture}
	case calendar.IsWeekend(day):
		return Day{Date: day, Status: StatusWeekend}
	}
	if at, ok := arrivals[Key(day)]; ok {
		arrived := at
		return Day{Date: day, Status: StatusPresent, ArrivedAt: &arrived}
	}
	if day.Equal(today) && now.Hour() < CutoffHour {
		// Today's capture window is still open; not absent yet.
		return Day{Date: day, Status: StatusPending}
	}
	return Day{Date: day, Status: StatusAbsent}
}

// ClassifyRange derives one Day per calendar day in [start, end] inclusive.
func ClassifyRange(start, end time.Time, arrivals map[string]time.Time, now time.Time) ([]Day, error) {
	start, end = calendar.Date(start), calendar.Date(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Classify(d, arrivals, now))
	}
	return days, nil
}

// Tally summarizes a classified range. Present and absent only ever count
// working days that have already been finalized; pending days count toward
// neither bucket.
type Tally struct {
	Present int
	Absent  int
	Pending int
	Future  int
	Weekend int
}

// Total is the number of days tallied.
func (t Tally) Total() int {
	return t.Present + t.Absent + t.Pending + t.Future + t.Weekend
}

// TallyDays counts classifications per status.
func TallyDays(days []Day) Tally {
	var t Tally
	for _, d := range days {
		switch d.Status {
		case StatusPresent:
			t.Present++
		case StatusAbsent:
			t.Absent++
		case StatusPending:
			t.Pending++
		case StatusFuture:
			t.Future++
		case StatusWeekend:
			t.Weekend++
		}
	}
	return t
}
