package roster

import (
	"time"

	"presence/internal/assignment"
)

// Student is a roster entry. Standard and Stream are optional; a student
// without a standard is never auto-assigned to faculty.
type Student struct {
	ID           int64      `json:"student_id"`
	FullName     string     `json:"full_name"`
	RollNo       string     `json:"roll_no"`
	Standard     *string    `json:"standard,omitempty"`
	Stream       *string    `json:"stream,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	InstituteID  string     `json:"institute_id"`
	RegisteredBy *int64     `json:"registered_by,omitempty"`
	RegisteredAt *time.Time `json:"registration_date,omitempty"`
	Status       string     `json:"status"`
	Active       bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Snapshot converts the roster row into the matcher's value type.
func (s Student) Snapshot() assignment.Student {
	snap := assignment.Student{
		ID:          s.ID,
		InstituteID: s.InstituteID,
		Stream:      assignment.AllStreams(),
	}
	if s.Standard != nil {
		snap.Standard = *s.Standard
	}
	if s.Stream != nil {
		snap.Stream = assignment.NamedStream(*s.Stream)
	}
	if s.RegisteredAt != nil {
		snap.RegisteredAt = *s.RegisteredAt
	}
	return snap
}

// Faculty is a teaching staff entry. A NULL stream means the faculty teaches
// every stream.
type Faculty struct {
	ID          int64     `json:"faculty_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	InstituteID string    `json:"institute_id"`
	Stream      *string   `json:"stream,omitempty"`
	Status      string    `json:"status"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Link is a persisted faculty-student edge. The matcher only ever creates
// links; deactivation is an administrative action elsewhere.
type Link struct {
	FacultyID  int64     `json:"faculty_id"`
	StudentID  int64     `json:"student_id"`
	Active     bool      `json:"is_active"`
	AssignedAt time.Time `json:"assigned_date"`
}
