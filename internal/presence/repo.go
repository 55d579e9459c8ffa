package presence

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"presence/internal/inference"
)

// Record is one positive presence row. There is never an "absent" row; at
// most one record exists per (student, date) and it is immutable.
type Record struct {
	ID          string    `json:"id"`
	StudentID   int64     `json:"student_id"`
	Date        time.Time `json:"date"`
	InstituteID string    `json:"institute_id"`
	CreatedAt   time.Time `json:"created_at"` // doubles as arrival time
}

// Repository persists presence records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a presence row for the student and day unless one already
// exists. Returns whether a new row was created.
func (r *Repository) Insert(ctx context.Context, studentID int64, instituteID string, day, capturedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO presence_records (id, student_id, attendance_date, institute_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, attendance_date) DO NOTHING
	`, uuid.NewString(), studentID, day, instituteID, capturedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ArrivalsBetween returns the student's arrival time per present day in
// [start, end], keyed by inference.Key.
func (r *Repository) ArrivalsBetween(ctx context.Context, studentID int64, start, end time.Time) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT attendance_date, created_at
		FROM presence_records
		WHERE student_id = $1 AND attendance_date BETWEEN $2 AND $3
	`, studentID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	arrivals := map[string]time.Time{}
	for rows.Next() {
		var day, at time.Time
		if err := rows.Scan(&day, &at); err != nil {
			return nil, err
		}
		arrivals[inference.Key(day)] = at
	}
	return arrivals, rows.Err()
}

// ArrivalsForStudents loads arrivals for a whole cohort in one query,
// grouped per student. Students with no rows in the range get an empty map.
func (r *Repository) ArrivalsForStudents(ctx context.Context, studentIDs []int64, start, end time.Time) (map[int64]map[string]time.Time, error) {
	cohort := make(map[int64]map[string]time.Time, len(studentIDs))
	for _, id := range studentIDs {
		cohort[id] = map[string]time.Time{}
	}
	if len(studentIDs) == 0 {
		return cohort, nil
	}

	placeholders := make([]string, len(studentIDs))
	args := make([]any, 0, len(studentIDs)+2)
	for i, id := range studentIDs {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args = append(args, id)
	}
	args = append(args, start, end)
	query := `
		SELECT student_id, attendance_date, created_at
		FROM presence_records
		WHERE student_id IN (` + strings.Join(placeholders, ",") + `)
		AND attendance_date BETWEEN $` + strconv.Itoa(len(studentIDs)+1) +
		` AND $` + strconv.Itoa(len(studentIDs)+2)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			day, at time.Time
		)
		if err := rows.Scan(&id, &day, &at); err != nil {
			return nil, err
		}
		cohort[id][inference.Key(day)] = at
	}
	return cohort, rows.Err()
}

// Recent returns the student's newest presence rows, most recent first.
func (r *Repository) Recent(ctx context.Context, studentID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 7
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, attendance_date, institute_id, created_at
		FROM presence_records
		WHERE student_id = $1
		ORDER BY attendance_date DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.InstituteID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
