package stats

import (
	"testing"
	"time"

	"presence/internal/inference"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.Local)
}

func at(y int, m time.Month, day, hour, min int) time.Time {
	return time.Date(y, m, day, hour, min, 0, 0, time.Local)
}

func arrivalSet(days ...time.Time) map[string]time.Time {
	set := make(map[string]time.Time, len(days))
	for _, day := range days {
		set[inference.Key(day)] = day.Add(9 * time.Hour)
	}
	return set
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, whole int
		want        float64
	}{
		{"zero denominator", 3, 0, 0},
		{"exact", 1, 2, 50},
		{"rounds down", 1, 3, 33.3},
		{"rounds up", 2, 3, 66.7},
		{"eleven working days", 4, 11, 36.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.part, tt.whole); got != tt.want {
				t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}

func TestMonthly(t *testing.T) {
	arrivals := arrivalSet(d(2024, 3, 11), d(2024, 3, 12), d(2024, 3, 14), d(2024, 3, 15))
	now := at(2024, 3, 15, 22, 0)

	got, err := Monthly(2024, time.March, arrivals, now)
	if err != nil {
		t.Fatal(err)
	}
	if got.Present != 4 {
		t.Errorf("present = %d, want 4", got.Present)
	}
	if got.Absent != 7 {
		t.Errorf("absent = %d, want 7", got.Absent)
	}
	if got.WorkingDaysSoFar != 11 {
		t.Errorf("working days so far = %d, want 11", got.WorkingDaysSoFar)
	}
	if got.WorkingDaysTotal != 21 {
		t.Errorf("total working days = %d, want 21", got.WorkingDaysTotal)
	}
	if got.Percent != 36.4 {
		t.Errorf("percent = %v, want 36.4", got.Percent)
	}
	if got.Month != "March" {
		t.Errorf("month = %q, want March", got.Month)
	}
}

func TestMonthlyFutureMonthIsZero(t *testing.T) {
	got, err := Monthly(2024, time.May, nil, at(2024, 3, 15, 10, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got.Present != 0 || got.Absent != 0 || got.WorkingDaysSoFar != 0 || got.Percent != 0 {
		t.Errorf("future month should be all zeros, got %+v", got)
	}
}

func TestAcademicYear(t *testing.T) {
	// 2024-02-05 is a Monday; Feb 1 is a Thursday.
	arrivals := arrivalSet(d(2024, 2, 1), d(2024, 2, 5))
	now := at(2024, 2, 5, 22, 0)

	got, err := AcademicYear(arrivals, now)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Start.Equal(d(2024, 2, 1)) {
		t.Errorf("start = %v, want Feb 1", got.Start)
	}
	if got.WorkingDays != 3 {
		t.Errorf("working days = %d, want 3", got.WorkingDays)
	}
	if got.Present != 2 {
		t.Errorf("present = %d, want 2", got.Present)
	}
	if got.Percent != 66.7 {
		t.Errorf("percent = %v, want 66.7", got.Percent)
	}
}

func TestWeeklyTrend(t *testing.T) {
	cohort := []map[string]time.Time{
		arrivalSet(d(2024, 3, 11), d(2024, 3, 12), d(2024, 3, 13), d(2024, 3, 14), d(2024, 3, 15)),
		arrivalSet(d(2024, 3, 13)),
	}
	now := at(2024, 3, 15, 10, 0)

	trend := WeeklyTrend(cohort, now)
	if len(trend) != TrendDays {
		t.Fatalf("trend length = %d, want %d", len(trend), TrendDays)
	}
	if trend[0].Date != "2024-03-09" || trend[6].Date != "2024-03-15" {
		t.Fatalf("trend spans %s..%s, want 2024-03-09..2024-03-15", trend[0].Date, trend[6].Date)
	}
	if trend[0].Present != 0 || trend[0].Rate != 0 {
		t.Errorf("saturday point = %+v, want no one present", trend[0])
	}
	// Wednesday the 13th: both students present.
	if trend[4].Present != 2 || trend[4].Rate != 100 {
		t.Errorf("wednesday point = %+v, want 2 present at 100%%", trend[4])
	}
	// Friday the 15th: only the first student has a record.
	if trend[6].Present != 1 || trend[6].Rate != 50 {
		t.Errorf("friday point = %+v, want 1 present at 50%%", trend[6])
	}
	if trend[6].Total != 2 {
		t.Errorf("total = %d, want cohort size 2", trend[6].Total)
	}
}

func TestTrendAverage(t *testing.T) {
	trend := []TrendPoint{{Rate: 50}, {Rate: 100}, {Rate: 25}}
	if got := TrendAverage(trend); got != 58.3 {
		t.Errorf("TrendAverage() = %v, want 58.3", got)
	}
	if got := TrendAverage(nil); got != 0 {
		t.Errorf("TrendAverage(nil) = %v, want 0", got)
	}
}

func TestStreak(t *testing.T) {
	fullWeek := arrivalSet(d(2024, 3, 11), d(2024, 3, 12), d(2024, 3, 13), d(2024, 3, 14), d(2024, 3, 15))
	tests := []struct {
		name     string
		arrivals map[string]time.Time
		now      time.Time
		want     int
	}{
		{
			// Present Mon-Fri, queried the following Monday morning with no
			// record yet: the pending Monday is skipped, the weekend is
			// skipped, and the prior week counts in full.
			name:     "pending today does not break streak",
			arrivals: fullWeek,
			now:      at(2024, 3, 18, 10, 0),
			want:     5,
		},
		{
			name:     "absent today after cutoff breaks streak",
			arrivals: fullWeek,
			now:      at(2024, 3, 18, 22, 0),
			want:     0,
		},
		{
			name:     "present today extends streak",
			arrivals: arrivalSet(d(2024, 3, 14), d(2024, 3, 15), d(2024, 3, 18)),
			now:      at(2024, 3, 18, 10, 0),
			want:     3,
		},
		{
			name:     "gap stops the walk",
			arrivals: arrivalSet(d(2024, 3, 13), d(2024, 3, 15)),
			now:      at(2024, 3, 15, 10, 0),
			want:     1,
		},
		{
			name: "no records",
			now:  at(2024, 3, 15, 22, 0),
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.arrivals, tt.now); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCohortRollup(t *testing.T) {
	cohort := []map[string]time.Time{
		arrivalSet(d(2024, 3, 14)),
		arrivalSet(d(2024, 3, 13)),
		arrivalSet(),
	}
	now := at(2024, 3, 15, 10, 0)

	got := CohortRollup(d(2024, 3, 14), cohort, now)
	if got.Present != 1 || got.Absent != 2 || got.Total != 3 {
		t.Errorf("rollup = %+v, want 1 present / 2 absent / 3 total", got)
	}
	if got.Rate != 33.3 {
		t.Errorf("rate = %v, want 33.3", got.Rate)
	}

	empty := CohortRollup(d(2024, 3, 14), nil, now)
	if empty.Rate != 0 || empty.Present != 0 || empty.Total != 0 {
		t.Errorf("empty cohort rollup = %+v, want zeros", empty)
	}
}
