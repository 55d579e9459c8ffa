package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"presence/internal/assignment"
)

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetStudent returns a student by id, nil when missing.
func (r *Repository) GetStudent(ctx context.Context, id int64) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, full_name, roll_no, standard, stream, email, phone,
		       institute_id, registered_by, registration_date, status, is_active, created_at
		FROM students WHERE student_id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.FullName, &s.RollNo, &s.Standard, &s.Stream, &s.Email, &s.Phone,
		&s.InstituteID, &s.RegisteredBy, &s.RegisteredAt, &s.Status, &s.Active, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RollNoExists reports whether a roll number is already taken in an institute.
func (r *Repository) RollNoExists(ctx context.Context, instituteID, rollNo string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM students WHERE institute_id = $1 AND roll_no = $2)
	`, instituteID, rollNo).Scan(&exists)
	return exists, err
}

// InsertStudent writes a new student and returns it with generated fields.
func (r *Repository) InsertStudent(ctx context.Context, s Student) (Student, error) {
	if s.Status == "" {
		s.Status = "ACTIVE"
	}
	if s.RegisteredAt == nil {
		today := time.Now()
		s.RegisteredAt = &today
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (full_name, roll_no, standard, stream, email, phone,
		                      institute_id, registered_by, registration_date, status, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,TRUE)
		RETURNING student_id, created_at
	`, s.FullName, s.RollNo, s.Standard, s.Stream, s.Email, s.Phone,
		s.InstituteID, s.RegisteredBy, s.RegisteredAt, s.Status)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Student{}, err
	}
	s.Active = true
	return s, nil
}

// FacultyRules loads the matching rules for every active faculty member of an
// institute: the classes they teach plus their stream (NULL = all streams).
func (r *Repository) FacultyRules(ctx context.Context, instituteID string) ([]assignment.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.faculty_id, f.stream, fc.class_name
		FROM faculty f
		JOIN faculty_classes fc ON fc.faculty_id = f.faculty_id
		WHERE f.institute_id = $1 AND f.is_active AND f.status = 'ACTIVE'
		ORDER BY f.faculty_id
	`, instituteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byFaculty := map[int64]*assignment.Rule{}
	var order []int64
	for rows.Next() {
		var (
			id        int64
			stream    *string
			className string
		)
		if err := rows.Scan(&id, &stream, &className); err != nil {
			return nil, err
		}
		rule, ok := byFaculty[id]
		if !ok {
			rule = &assignment.Rule{
				FacultyID: id,
				Classes:   map[string]bool{},
				Stream:    assignment.AllStreams(),
			}
			if stream != nil {
				rule.Stream = assignment.NamedStream(*stream)
			}
			byFaculty[id] = rule
			order = append(order, id)
		}
		rule.Classes[className] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rules := make([]assignment.Rule, 0, len(order))
	for _, id := range order {
		rules = append(rules, *byFaculty[id])
	}
	return rules, nil
}

// ExistingLinks returns the faculty ids a student is already linked to,
// active or not: a deactivated link still blocks re-creation.
func (r *Repository) ExistingLinks(ctx context.Context, studentID int64) (map[int64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT faculty_id FROM faculty_students WHERE student_id = $1
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		links[id] = true
	}
	return links, rows.Err()
}

// InsertLink creates a faculty-student link if it does not already exist.
func (r *Repository) InsertLink(ctx context.Context, facultyID, studentID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO faculty_students (faculty_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (faculty_id, student_id) DO NOTHING
	`, facultyID, studentID)
	return err
}

// GetFaculty returns a faculty member by id, nil when missing.
func (r *Repository) GetFaculty(ctx context.Context, id int64) (*Faculty, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT faculty_id, full_name, email, institute_id, stream, status, is_active, created_at
		FROM faculty WHERE faculty_id = $1
	`, id)
	var f Faculty
	if err := row.Scan(&f.ID, &f.FullName, &f.Email, &f.InstituteID, &f.Stream, &f.Status, &f.Active, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// FacultyClassNames lists the classes a faculty member teaches.
func (r *Repository) FacultyClassNames(ctx context.Context, facultyID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT class_name FROM faculty_classes WHERE faculty_id = $1 ORDER BY class_name
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		classes = append(classes, name)
	}
	return classes, rows.Err()
}

// FacultyStudentIDs lists the active students linked to a faculty member.
func (r *Repository) FacultyStudentIDs(ctx context.Context, facultyID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fs.student_id
		FROM faculty_students fs
		JOIN students s ON s.student_id = fs.student_id
		WHERE fs.faculty_id = $1 AND fs.is_active AND s.is_active
		ORDER BY fs.student_id
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveStudentIDs lists every active student of an institute.
func (r *Repository) ActiveStudentIDs(ctx context.Context, instituteID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM students
		WHERE institute_id = $1 AND is_active AND status = 'ACTIVE'
		ORDER BY student_id
	`, instituteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountActiveFaculty counts active faculty in an institute.
func (r *Repository) CountActiveFaculty(ctx context.Context, instituteID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM faculty
		WHERE institute_id = $1 AND is_active AND status = 'ACTIVE'
	`, instituteID).Scan(&n)
	return n, err
}
