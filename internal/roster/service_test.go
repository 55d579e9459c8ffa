package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/assignment"
)

type fakeStore struct {
	students map[int64]Student
	rules    []assignment.Rule
	links    map[int64]map[int64]bool // studentID -> facultyID set
	nextID   int64

	linkErrFor map[int64]error // facultyID -> error to return on InsertLink
	rulesErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:   map[int64]Student{},
		links:      map[int64]map[int64]bool{},
		linkErrFor: map[int64]error{},
		nextID:     1,
	}
}

func (f *fakeStore) GetStudent(_ context.Context, id int64) (*Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) RollNoExists(_ context.Context, instituteID, rollNo string) (bool, error) {
	for _, s := range f.students {
		if s.InstituteID == instituteID && s.RollNo == rollNo {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertStudent(_ context.Context, s Student) (Student, error) {
	s.ID = f.nextID
	f.nextID++
	s.Active = true
	f.students[s.ID] = s
	return s, nil
}

func (f *fakeStore) FacultyRules(_ context.Context, _ string) ([]assignment.Rule, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	return f.rules, nil
}

func (f *fakeStore) ExistingLinks(_ context.Context, studentID int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for id := range f.links[studentID] {
		out[id] = true
	}
	return out, nil
}

func (f *fakeStore) InsertLink(_ context.Context, facultyID, studentID int64) error {
	if err := f.linkErrFor[facultyID]; err != nil {
		return err
	}
	if f.links[studentID] == nil {
		f.links[studentID] = map[int64]bool{}
	}
	f.links[studentID][facultyID] = true
	return nil
}

func str(s string) *string { return &s }

func scienceRules() []assignment.Rule {
	return []assignment.Rule{
		{FacultyID: 10, Classes: map[string]bool{"10th": true}, Stream: assignment.AllStreams()},
		{FacultyID: 20, Classes: map[string]bool{"10th": true}, Stream: assignment.NamedStream("Science")},
		{FacultyID: 30, Classes: map[string]bool{"12th": true}, Stream: assignment.NamedStream("Science")},
	}
}

func TestRegisterAssignsFaculty(t *testing.T) {
	store := newFakeStore()
	store.rules = scienceRules()
	svc := NewService(store)

	created, err := svc.Register(context.Background(), RegisterInput{
		FullName:    "Asha Verma",
		RollNo:      "42",
		Standard:    str("10th"),
		Stream:      str("Science"),
		InstituteID: "INST-1",
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, map[int64]bool{10: true, 20: true}, store.links[created.ID])
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Register(context.Background(), RegisterInput{RollNo: "42"})
	assert.Error(t, err, "missing name and institute must fail validation")

	_, err = svc.Register(context.Background(), RegisterInput{
		FullName:    "Asha Verma",
		RollNo:      "42",
		Email:       str("not-an-email"),
		InstituteID: "INST-1",
	})
	assert.Error(t, err)
}

func TestRegisterDuplicateRoll(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Asha Verma", RollNo: "42", InstituteID: "INST-1",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		FullName: "Ravi Rao", RollNo: "42", InstituteID: "INST-1",
	})
	assert.ErrorIs(t, err, ErrDuplicateRoll)
}

func TestRegisterSurvivesAssignmentFailure(t *testing.T) {
	store := newFakeStore()
	store.rules = scienceRules()
	store.rulesErr = errors.New("db down")
	svc := NewService(store)

	created, err := svc.Register(context.Background(), RegisterInput{
		FullName:    "Asha Verma",
		RollNo:      "42",
		Standard:    str("10th"),
		InstituteID: "INST-1",
	})
	require.NoError(t, err, "assignment failure must not fail registration")
	assert.NotZero(t, created.ID)
	assert.Empty(t, store.links[created.ID])
}

func TestAssignFacultySkipsFailedLink(t *testing.T) {
	store := newFakeStore()
	store.rules = scienceRules()
	store.linkErrFor[10] = errors.New("constraint violation")
	svc := NewService(store)

	created, err := svc.Register(context.Background(), RegisterInput{
		FullName:    "Asha Verma",
		RollNo:      "42",
		Standard:    str("10th"),
		Stream:      str("Science"),
		InstituteID: "INST-1",
	})
	require.NoError(t, err)
	// Faculty 20 still linked even though faculty 10's write failed.
	assert.Equal(t, map[int64]bool{20: true}, store.links[created.ID])
}

func TestReassignIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.rules = scienceRules()
	svc := NewService(store)

	created, err := svc.Register(context.Background(), RegisterInput{
		FullName:    "Asha Verma",
		RollNo:      "42",
		Standard:    str("10th"),
		Stream:      str("Science"),
		InstituteID: "INST-1",
	})
	require.NoError(t, err)

	linked, err := svc.Reassign(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, linked, "second run must create no new links")
}

func TestReassignUnknownStudent(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Reassign(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUnknownStudent)
}

func TestLookupUnknownStudent(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Lookup(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUnknownStudent)
}
