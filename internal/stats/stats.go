// Package stats aggregates derived day classifications into the numbers the
// dashboards show: month and academic-year percentages, daily trends, streaks
// and cohort rollups. It is a thin consumer of the inference package and
// holds no state of its own.
package stats

import (
	"math"
	"time"

	"presence/internal/calendar"
	"presence/internal/inference"
)

// TrendDays is the number of points in a daily trend.
const TrendDays = 7

// Percent is part/whole as a percentage rounded to one decimal.
// A zero denominator yields 0, never an error.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round1(float64(part) / float64(whole) * 100)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RangeStats summarizes attendance over a bounded date range.
type RangeStats struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Present     int       `json:"present_days"`
	Absent      int       `json:"absent_days"`
	WorkingDays int       `json:"working_days"`
	Percent     float64   `json:"attendance_percent"`
}

// Range classifies [start, end] and derives counts and the percentage
// against the working days in the range.
func Range(start, end time.Time, arrivals map[string]time.Time, now time.Time) (RangeStats, error) {
	days, err := inference.ClassifyRange(start, end, arrivals, now)
	if err != nil {
		return RangeStats{}, err
	}
	t := inference.TallyDays(days)
	working := calendar.WorkingDaysBetween(start, end)
	return RangeStats{
		Start:       calendar.Date(start),
		End:         calendar.Date(end),
		Present:     t.Present,
		Absent:      t.Absent,
		WorkingDays: working,
		Percent:     Percent(t.Present, working),
	}, nil
}

// MonthStats is the current-month block of the student dashboard.
type MonthStats struct {
	Year             int     `json:"year"`
	Month            string  `json:"month"`
	Present          int     `json:"present_days"`
	Absent           int     `json:"absent_days"`
	WorkingDaysSoFar int     `json:"working_days"`
	WorkingDaysTotal int     `json:"total_month_working_days"`
	Percent          float64 `json:"attendance_percent"`
}

// Monthly derives month statistics. The denominator only counts working days
// up to today so a month in progress is not penalized for days that have not
// happened yet; a month entirely in the future reports zeros.
func Monthly(year int, month time.Month, arrivals map[string]time.Time, now time.Time) (MonthStats, error) {
	first, last := calendar.MonthBoundaries(year, month)
	days, err := inference.ClassifyRange(first, last, arrivals, now)
	if err != nil {
		return MonthStats{}, err
	}
	t := inference.TallyDays(days)
	soFar := calendar.WorkingDaysBetween(first, calendar.MinDate(calendar.Date(now), last))
	return MonthStats{
		Year:             year,
		Month:            first.Format("January"),
		Present:          t.Present,
		Absent:           t.Absent,
		WorkingDaysSoFar: soFar,
		WorkingDaysTotal: calendar.WorkingDaysBetween(first, last),
		Percent:          Percent(t.Present, soFar),
	}, nil
}

// YearStats is the academic-year block of the student dashboard.
type YearStats struct {
	Start       time.Time `json:"start_date"`
	Present     int       `json:"present_days"`
	WorkingDays int       `json:"working_days"`
	Percent     float64   `json:"attendance_percent"`
}

// AcademicYear derives year-to-date statistics from the academic year start
// (February 1st) through today.
func AcademicYear(arrivals map[string]time.Time, now time.Time) (YearStats, error) {
	start := calendar.AcademicYearStart(now)
	rs, err := Range(start, calendar.Date(now), arrivals, now)
	if err != nil {
		return YearStats{}, err
	}
	return YearStats{
		Start:       start,
		Present:     rs.Present,
		WorkingDays: rs.WorkingDays,
		Percent:     rs.Percent,
	}, nil
}

// TrendPoint is one day of a cohort trend.
type TrendPoint struct {
	Date    string  `json:"date"`
	DayName string  `json:"day_name"`
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Rate    float64 `json:"attendance_rate"`
}

// WeeklyTrend derives the last TrendDays days (oldest first, ending today)
// for a cohort. A single student is a cohort of one. Present for a day is
// the number of cohort members individually classified present.
func WeeklyTrend(cohort []map[string]time.Time, now time.Time) []TrendPoint {
	today := calendar.Date(now)
	trend := make([]TrendPoint, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		present := 0
		for _, arrivals := range cohort {
			if inference.Classify(day, arrivals, now).Status == inference.StatusPresent {
				present++
			}
		}
		trend = append(trend, TrendPoint{
			Date:    inference.Key(day),
			DayName: day.Format("Mon"),
			Present: present,
			Total:   len(cohort),
			Rate:    Percent(present, len(cohort)),
		})
	}
	return trend
}

// TrendAverage is the mean rate across trend points, one decimal.
func TrendAverage(trend []TrendPoint) float64 {
	if len(trend) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range trend {
		sum += p.Rate
	}
	return Round1(sum / float64(len(trend)))
}

// Streak counts the most recent consecutive working days the student was
// present, walking backward from today. Weekends never break a streak; a
// pending today is skipped without counting; the walk stops at the first
// finalized absent day.
func Streak(arrivals map[string]time.Time, now time.Time) int {
	streak := 0
	for day := calendar.Date(now); ; day = day.AddDate(0, 0, -1) {
		switch inference.Classify(day, arrivals, now).Status {
		case inference.StatusWeekend:
			continue
		case inference.StatusPresent:
			streak++
		case inference.StatusPending:
			// Today's window is still open; look one day further back.
			continue
		default:
			return streak
		}
	}
}

// Rollup is a one-day cohort summary.
type Rollup struct {
	Date    string  `json:"date"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Rate    float64 `json:"attendance_rate"`
}

// CohortRollup summarizes one day across a set of students. Absent here is
// simply the cohort remainder, matching the dashboard definition rather than
// the per-student finalization rules.
func CohortRollup(day time.Time, cohort []map[string]time.Time, now time.Time) Rollup {
	day = calendar.Date(day)
	present := 0
	for _, arrivals := range cohort {
		if inference.Classify(day, arrivals, now).Status == inference.StatusPresent {
			present++
		}
	}
	return Rollup{
		Date:    inference.Key(day),
		Present: present,
		Absent:  max(0, len(cohort)-present),
		Total:   len(cohort),
		Rate:    Percent(present, len(cohort)),
	}
}
