package roster

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"

	"presence/internal/assignment"
)

// ErrUnknownStudent is returned when an operation references a student with
// no roster entry. A missing student is never treated as "no attendance".
var ErrUnknownStudent = errors.New("roster: unknown student")

// ErrUnknownFaculty is the faculty-side counterpart of ErrUnknownStudent.
var ErrUnknownFaculty = errors.New("roster: unknown faculty")

// ErrDuplicateRoll is returned when a roll number is already taken within
// the institute.
var ErrDuplicateRoll = errors.New("roster: roll number already registered in institute")

// Store is the persistence surface the service needs.
type Store interface {
	GetStudent(ctx context.Context, id int64) (*Student, error)
	RollNoExists(ctx context.Context, instituteID, rollNo string) (bool, error)
	InsertStudent(ctx context.Context, s Student) (Student, error)
	FacultyRules(ctx context.Context, instituteID string) ([]assignment.Rule, error)
	ExistingLinks(ctx context.Context, studentID int64) (map[int64]bool, error)
	InsertLink(ctx context.Context, facultyID, studentID int64) error
}

// RegisterInput is the student registration payload.
type RegisterInput struct {
	FullName    string  `json:"full_name" validate:"required,min=2,max=255"`
	RollNo      string  `json:"roll_no" validate:"required,max=100"`
	Standard    *string `json:"standard" validate:"omitempty,max=50"`
	Stream      *string `json:"stream" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	InstituteID string  `json:"institute_id" validate:"required,max=100"`
}

// Service registers students and keeps faculty links in sync.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Register validates and persists a new student, then links them to the
// matching faculty. Assignment is best-effort: a failure there is logged and
// swallowed so it can never undo a registration that already succeeded.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Student, error) {
	if err := s.validate.Struct(in); err != nil {
		return Student{}, err
	}
	taken, err := s.store.RollNoExists(ctx, in.InstituteID, in.RollNo)
	if err != nil {
		return Student{}, err
	}
	if taken {
		return Student{}, ErrDuplicateRoll
	}

	created, err := s.store.InsertStudent(ctx, Student{
		FullName:    in.FullName,
		RollNo:      in.RollNo,
		Standard:    in.Standard,
		Stream:      in.Stream,
		Email:       in.Email,
		Phone:       in.Phone,
		InstituteID: in.InstituteID,
	})
	if err != nil {
		return Student{}, err
	}

	if _, err := s.AssignFaculty(ctx, created); err != nil {
		log.Printf("auto-assignment for student %d failed: %v", created.ID, err)
	}
	return created, nil
}

// AssignFaculty links a student to every eligible faculty member not already
// linked, returning the faculty ids that were newly linked. Individual link
// writes that fail are logged and skipped; re-running is always safe.
func (s *Service) AssignFaculty(ctx context.Context, student Student) ([]int64, error) {
	rules, err := s.store.FacultyRules(ctx, student.InstituteID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ExistingLinks(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	var linked []int64
	for _, facultyID := range assignment.Match(student.Snapshot(), rules, existing) {
		if err := s.store.InsertLink(ctx, facultyID, student.ID); err != nil {
			log.Printf("link student %d to faculty %d failed: %v", student.ID, facultyID, err)
			continue
		}
		linked = append(linked, facultyID)
	}
	return linked, nil
}

// Reassign re-runs faculty matching for an existing student, e.g. after a
// class or stream change.
func (s *Service) Reassign(ctx context.Context, studentID int64) ([]int64, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrUnknownStudent
	}
	return s.AssignFaculty(ctx, *student)
}

// Lookup returns the student or ErrUnknownStudent.
func (s *Service) Lookup(ctx context.Context, studentID int64) (Student, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if student == nil {
		return Student{}, ErrUnknownStudent
	}
	return *student, nil
}
