package calendar

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.Local)
}

func TestWorkingDaysBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single weekday", d(2024, 3, 13), d(2024, 3, 13), 1},
		{"single saturday", d(2024, 3, 16), d(2024, 3, 16), 0},
		{"single sunday", d(2024, 3, 17), d(2024, 3, 17), 0},
		{"full week", d(2024, 3, 11), d(2024, 3, 17), 5},
		{"two weeks", d(2024, 3, 11), d(2024, 3, 24), 10},
		{"end before start", d(2024, 3, 15), d(2024, 3, 11), 0},
		{"march 2024", d(2024, 3, 1), d(2024, 3, 31), 21},
		{"across month boundary", d(2024, 2, 28), d(2024, 3, 4), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkingDaysBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("WorkingDaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		wantFirst time.Time
		wantLast  time.Time
	}{
		{"leap february", 2024, time.February, d(2024, 2, 1), d(2024, 2, 29)},
		{"plain february", 2023, time.February, d(2023, 2, 1), d(2023, 2, 28)},
		{"thirty days", 2024, time.April, d(2024, 4, 1), d(2024, 4, 30)},
		{"thirty one days", 2024, time.December, d(2024, 12, 1), d(2024, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := MonthBoundaries(tt.year, tt.month)
			if !first.Equal(tt.wantFirst) || !last.Equal(tt.wantLast) {
				t.Errorf("MonthBoundaries() = (%v, %v), want (%v, %v)", first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestAcademicYearStart(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{"mid year", time.Date(2024, 7, 10, 12, 0, 0, 0, time.Local), d(2024, 2, 1)},
		{"february first", time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), d(2024, 2, 1)},
		{"january rolls back", time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local), d(2023, 2, 1)},
		{"december", time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local), d(2024, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AcademicYearStart(tt.ref); !got.Equal(tt.want) {
				t.Errorf("AcademicYearStart() = %v, want %v", got, tt.want)
			}
		})
	}
}
