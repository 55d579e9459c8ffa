package presence

import (
	"context"
	"time"

	"presence/internal/calendar"
	"presence/internal/inference"
	"presence/internal/roster"
	"presence/internal/stats"
)

// RecordStore is the presence-row surface the service reads. A query result
// is a point-in-time snapshot; the service never writes.
type RecordStore interface {
	ArrivalsBetween(ctx context.Context, studentID int64, start, end time.Time) (map[string]time.Time, error)
	ArrivalsForStudents(ctx context.Context, studentIDs []int64, start, end time.Time) (map[int64]map[string]time.Time, error)
	Recent(ctx context.Context, studentID int64, limit int) ([]Record, error)
}

// RosterStore is the roster surface the service reads.
type RosterStore interface {
	GetStudent(ctx context.Context, id int64) (*roster.Student, error)
	GetFaculty(ctx context.Context, id int64) (*roster.Faculty, error)
	FacultyClassNames(ctx context.Context, facultyID int64) ([]string, error)
	FacultyStudentIDs(ctx context.Context, facultyID int64) ([]int64, error)
	ActiveStudentIDs(ctx context.Context, instituteID string) ([]int64, error)
	CountActiveFaculty(ctx context.Context, instituteID string) (int, error)
}

// Service derives the dashboard views. Every request captures the clock once
// and threads it through the engines, so a response is a consistent snapshot.
type Service struct {
	records RecordStore
	roster  RosterStore
	nowFn   func() time.Time
}

// NewService creates a service over the two stores.
func NewService(records RecordStore, rosterStore RosterStore) *Service {
	return &Service{records: records, roster: rosterStore, nowFn: time.Now}
}

const recentLimit = 7

// Streak fetches widen backward in chunks of streakWindowDays until the
// window contains a finalized absence, capped at streakHistoryDays. A run
// that crosses the academic-year start must not be cut off at an arbitrary
// query boundary.
const (
	streakWindowDays  = 90
	streakHistoryDays = 730
)

// Sidebar is the quick-view summary of the current month.
type Sidebar struct {
	PresentDays int     `json:"present_days"`
	AbsentDays  int     `json:"absent_days"`
	WorkingDays int     `json:"working_days"`
	Percent     float64 `json:"attendance_percent"`
}

// RecentEntry is one row of the recent-attendance panel.
type RecentEntry struct {
	Date    string `json:"date"`
	DayName string `json:"day_name"`
	Status  string `json:"status"`
	TimeIn  string `json:"time_in"`
}

// StudentDashboard is the full student landing view.
type StudentDashboard struct {
	Student     roster.Student     `json:"student_info"`
	Academic    stats.YearStats    `json:"academic_stats"`
	Streak      int                `json:"current_streak"`
	Month       stats.MonthStats   `json:"monthly_stats"`
	WeeklyTrend []stats.TrendPoint `json:"weekly_trend"`
	Recent      []RecentEntry      `json:"recent_attendance"`
	Sidebar     Sidebar            `json:"sidebar_stats"`
	GeneratedAt time.Time          `json:"last_updated"`
}

// StudentDashboard assembles academic-year, month, trend, streak and recent
// panels for one student.
func (s *Service) StudentDashboard(ctx context.Context, studentID int64) (StudentDashboard, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	now := s.nowFn()
	today := calendar.Date(now)

	yearStart := calendar.AcademicYearStart(now)
	arrivals, err := s.records.ArrivalsBetween(ctx, studentID, yearStart, today)
	if err != nil {
		return StudentDashboard{}, err
	}

	academic, err := stats.AcademicYear(arrivals, now)
	if err != nil {
		return StudentDashboard{}, err
	}
	month, err := stats.Monthly(now.Year(), now.Month(), arrivals, now)
	if err != nil {
		return StudentDashboard{}, err
	}

	recent, err := s.recent(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	streak, err := s.streak(ctx, studentID, now)
	if err != nil {
		return StudentDashboard{}, err
	}

	return StudentDashboard{
		Student:     student,
		Academic:    academic,
		Streak:      streak,
		Month:       month,
		WeeklyTrend: stats.WeeklyTrend([]map[string]time.Time{arrivals}, now),
		Recent:      recent,
		Sidebar: Sidebar{
			PresentDays: month.Present,
			AbsentDays:  month.Absent,
			WorkingDays: month.WorkingDaysSoFar,
			Percent:     month.Percent,
		},
		GeneratedAt: now,
	}, nil
}

// CalendarDay is one cell of the month calendar grid.
type CalendarDay struct {
	Date         string  `json:"date"`
	Day          int     `json:"day"`
	DayName      string  `json:"day_name"`
	IsWeekend    bool    `json:"is_weekend"`
	IsToday      bool    `json:"is_today"`
	IsFuture     bool    `json:"is_future"`
	IsWorkingDay bool    `json:"is_working_day"`
	Status       string  `json:"status"`
	TimeIn       *string `json:"time_in,omitempty"`
}

// MonthCalendar is the calendar view of one month.
type MonthCalendar struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	MonthName string           `json:"month_name"`
	Days      []CalendarDay    `json:"calendar_data"`
	Stats     stats.MonthStats `json:"statistics"`
}

// Calendar classifies every day of the month for the calendar grid.
func (s *Service) Calendar(ctx context.Context, studentID int64, year int, month time.Month) (MonthCalendar, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return MonthCalendar{}, err
	}
	now := s.nowFn()
	today := calendar.Date(now)
	first, last := calendar.MonthBoundaries(year, month)

	arrivals, err := s.records.ArrivalsBetween(ctx, studentID, first, last)
	if err != nil {
		return MonthCalendar{}, err
	}
	days, err := inference.ClassifyRange(first, last, arrivals, now)
	if err != nil {
		return MonthCalendar{}, err
	}
	monthStats, err := stats.Monthly(year, month, arrivals, now)
	if err != nil {
		return MonthCalendar{}, err
	}

	grid := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		cell := CalendarDay{
			Date:         inference.Key(d.Date),
			Day:          d.Date.Day(),
			DayName:      d.Date.Format("Monday"),
			IsWeekend:    calendar.IsWeekend(d.Date),
			IsToday:      d.Date.Equal(today),
			IsFuture:     d.Date.After(today),
			IsWorkingDay: !calendar.IsWeekend(d.Date),
			Status:       string(d.Status),
		}
		if d.ArrivedAt != nil {
			timeIn := d.ArrivedAt.Format("03:04 PM")
			cell.TimeIn = &timeIn
		}
		grid = append(grid, cell)
	}

	return MonthCalendar{
		Year:      year,
		Month:     int(month),
		MonthName: first.Format("January"),
		Days:      grid,
		Stats:     monthStats,
	}, nil
}

// RecordEntry is one row of the merged present/absent record listing.
type RecordEntry struct {
	Date       string `json:"date"`
	DayName    string `json:"day_name"`
	Status     string `json:"status"`
	TimeIn     string `json:"time_in"`
	RecordedBy string `json:"recorded_by"`
	Remarks    string `json:"remarks"`
}

// RecordPage is a paginated month of record entries.
type RecordPage struct {
	Records    []RecordEntry `json:"records"`
	Present    int           `json:"present_count"`
	Absent     int           `json:"absent_count"`
	Percent    float64       `json:"attendance_percent"`
	Page       int           `json:"current_page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total_records"`
	PerPage    int           `json:"records_per_page"`
}

// Records merges present rows with derived absences for a month, newest
// first, and pages through them. Weekend, pending and future days are not
// listed; they are visible in the calendar view instead.
func (s *Service) Records(ctx context.Context, studentID int64, year int, month time.Month, page, perPage int) (RecordPage, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return RecordPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	now := s.nowFn()
	first, last := calendar.MonthBoundaries(year, month)

	arrivals, err := s.records.ArrivalsBetween(ctx, studentID, first, last)
	if err != nil {
		return RecordPage{}, err
	}
	days, err := inference.ClassifyRange(first, last, arrivals, now)
	if err != nil {
		return RecordPage{}, err
	}

	var entries []RecordEntry
	for i := len(days) - 1; i >= 0; i-- { // newest first
		d := days[i]
		switch d.Status {
		case inference.StatusPresent:
			entries = append(entries, RecordEntry{
				Date:       inference.Key(d.Date),
				DayName:    d.Date.Format("Monday"),
				Status:     string(d.Status),
				TimeIn:     d.ArrivedAt.Format("03:04 PM"),
				RecordedBy: "Face Recognition System",
				Remarks:    "Automated attendance via face recognition",
			})
		case inference.StatusAbsent:
			entries = append(entries, RecordEntry{
				Date:       inference.Key(d.Date),
				DayName:    d.Date.Format("Monday"),
				Status:     string(d.Status),
				TimeIn:     "--",
				RecordedBy: "System",
				Remarks:    "No attendance recorded",
			})
		}
	}

	tally := inference.TallyDays(days)
	total := len(entries)
	totalPages := (total + perPage - 1) / perPage
	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	limit := offset + perPage
	if limit > total {
		limit = total
	}

	return RecordPage{
		Records:    entries[offset:limit],
		Present:    tally.Present,
		Absent:     tally.Absent,
		Percent:    stats.Percent(tally.Present, total),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		PerPage:    perPage,
	}, nil
}

// FacultyDashboard summarizes a faculty member's cohort.
type FacultyDashboard struct {
	Faculty       roster.Faculty     `json:"faculty_info"`
	MyStudents    int                `json:"my_students"`
	MyClasses     int                `json:"my_classes"`
	Classes       []string           `json:"assigned_classes"`
	Today         stats.Rollup       `json:"today"`
	WeeklyTrend   []stats.TrendPoint `json:"weekly_trend"`
	WeeklyAverage float64            `json:"weekly_average_attendance"`
	GeneratedAt   time.Time          `json:"last_updated"`
}

// FacultyDashboard rolls the faculty's assigned students up into today's
// numbers and a 7-day trend.
func (s *Service) FacultyDashboard(ctx context.Context, facultyID int64) (FacultyDashboard, error) {
	faculty, err := s.roster.GetFaculty(ctx, facultyID)
	if err != nil {
		return FacultyDashboard{}, err
	}
	if faculty == nil {
		return FacultyDashboard{}, roster.ErrUnknownFaculty
	}

	classes, err := s.roster.FacultyClassNames(ctx, facultyID)
	if err != nil {
		return FacultyDashboard{}, err
	}
	studentIDs, err := s.roster.FacultyStudentIDs(ctx, facultyID)
	if err != nil {
		return FacultyDashboard{}, err
	}

	now := s.nowFn()
	cohort, err := s.cohortArrivals(ctx, studentIDs, now)
	if err != nil {
		return FacultyDashboard{}, err
	}
	trend := stats.WeeklyTrend(cohort, now)

	return FacultyDashboard{
		Faculty:       *faculty,
		MyStudents:    len(studentIDs),
		MyClasses:     len(classes),
		Classes:       classes,
		Today:         stats.CohortRollup(calendar.Date(now), cohort, now),
		WeeklyTrend:   trend,
		WeeklyAverage: stats.TrendAverage(trend),
		GeneratedAt:   now,
	}, nil
}

// InstituteDashboard summarizes an institute.
type InstituteDashboard struct {
	InstituteID   string             `json:"institute_id"`
	TotalStudents int                `json:"total_students"`
	ActiveFaculty int                `json:"active_faculty"`
	Today         stats.Rollup       `json:"today"`
	WeeklyTrend   []stats.TrendPoint `json:"weekly_trend"`
	GeneratedAt   time.Time          `json:"last_updated"`
}

// InstituteDashboard rolls every active student of the institute up into
// today's numbers and a 7-day trend.
func (s *Service) InstituteDashboard(ctx context.Context, instituteID string) (InstituteDashboard, error) {
	studentIDs, err := s.roster.ActiveStudentIDs(ctx, instituteID)
	if err != nil {
		return InstituteDashboard{}, err
	}
	facultyCount, err := s.roster.CountActiveFaculty(ctx, instituteID)
	if err != nil {
		return InstituteDashboard{}, err
	}

	now := s.nowFn()
	cohort, err := s.cohortArrivals(ctx, studentIDs, now)
	if err != nil {
		return InstituteDashboard{}, err
	}

	return InstituteDashboard{
		InstituteID:   instituteID,
		TotalStudents: len(studentIDs),
		ActiveFaculty: facultyCount,
		Today:         stats.CohortRollup(calendar.Date(now), cohort, now),
		WeeklyTrend:   stats.WeeklyTrend(cohort, now),
		GeneratedAt:   now,
	}, nil
}

func (s *Service) student(ctx context.Context, studentID int64) (roster.Student, error) {
	student, err := s.roster.GetStudent(ctx, studentID)
	if err != nil {
		return roster.Student{}, err
	}
	if student == nil {
		return roster.Student{}, roster.ErrUnknownStudent
	}
	return *student, nil
}

// streak computes the backward present-day streak. The walk stops at the
// first finalized absence, so the fetch window only needs to reach the first
// ABSENT day; it widens until one is in range. Days before the student's
// first record classify ABSENT, which bounds the widening in practice.
func (s *Service) streak(ctx context.Context, studentID int64, now time.Time) (int, error) {
	today := calendar.Date(now)
	floor := today.AddDate(0, 0, -streakHistoryDays)
	start := today.AddDate(0, 0, -streakWindowDays)
	for {
		arrivals, err := s.records.ArrivalsBetween(ctx, studentID, start, today)
		if err != nil {
			return 0, err
		}
		days, err := inference.ClassifyRange(start, today, arrivals, now)
		if err != nil {
			return 0, err
		}
		for _, d := range days {
			if d.Status == inference.StatusAbsent {
				return stats.Streak(arrivals, now), nil
			}
		}
		if !start.After(floor) {
			return stats.Streak(arrivals, now), nil
		}
		start = start.AddDate(0, 0, -streakWindowDays)
	}
}

func (s *Service) recent(ctx context.Context, studentID int64) ([]RecentEntry, error) {
	recs, err := s.records.Recent(ctx, studentID, recentLimit)
	if err != nil {
		return nil, err
	}
	entries := make([]RecentEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, RecentEntry{
			Date:    inference.Key(rec.Date),
			DayName: rec.Date.Format("Monday"),
			Status:  string(inference.StatusPresent),
			TimeIn:  rec.CreatedAt.Format("03:04 PM"),
		})
	}
	return entries, nil
}

// cohortArrivals fetches the trend window of arrivals for a set of students.
func (s *Service) cohortArrivals(ctx context.Context, studentIDs []int64, now time.Time) ([]map[string]time.Time, error) {
	today := calendar.Date(now)
	start := today.AddDate(0, 0, -(stats.TrendDays - 1))
	byStudent, err := s.records.ArrivalsForStudents(ctx, studentIDs, start, today)
	if err != nil {
		return nil, err
	}
	cohort := make([]map[string]time.Time, 0, len(studentIDs))
	for _, id := range studentIDs {
		cohort = append(cohort, byStudent[id])
	}
	return cohort, nil
}
