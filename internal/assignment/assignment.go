// Package assignment computes which faculty members a student belongs to.
// Matching is pure: it takes a roster snapshot and the already-linked set and
// returns only the links that still need creating, so re-running it for the
// same student is a no-op.
package assignment

import "time"

// Stream is a tagged value distinguishing "teaches every stream" from a named
// stream, so eligibility never compares nullable strings.
type Stream struct {
	name string
	all  bool
}

// AllStreams matches any student stream.
func AllStreams() Stream { return Stream{all: true} }

// NamedStream matches students in one stream. An empty name is treated as
// AllStreams since the roster stores "no stream" as NULL.
func NamedStream(name string) Stream {
	if name == "" {
		return AllStreams()
	}
	return Stream{name: name}
}

// IsAll reports whether the stream matches everything.
func (s Stream) IsAll() bool { return s.all }

// Name returns the stream name, empty for AllStreams.
func (s Stream) Name() string { return s.name }

// Student is the roster snapshot the matcher needs.
type Student struct {
	ID           int64
	Standard     string // class name, empty when not set
	Stream       Stream
	InstituteID  string
	RegisteredAt time.Time
}

// Rule describes one faculty member's teaching assignment.
type Rule struct {
	FacultyID int64
	Classes   map[string]bool // class names the faculty teaches
	Stream    Stream
}

// Eligible reports whether the rule's faculty should be linked to the
// student: the faculty must teach the student's class, and either side
// teaching/belonging to all streams satisfies the stream check.
func Eligible(r Rule, s Student) bool {
	if s.Standard == "" || !r.Classes[s.Standard] {
		return false
	}
	switch {
	case r.Stream.IsAll():
		return true
	case s.Stream.IsAll():
		return true
	default:
		return r.Stream.Name() == s.Stream.Name()
	}
}

// Match returns the faculty ids the student should be newly linked to.
// Faculty already in existing are skipped, which is what makes repeated
// invocations (profile edits, re-registration) safe. A student with no
// standard matches nobody.
func Match(s Student, rules []Rule, existing map[int64]bool) []int64 {
	if s.Standard == "" {
		return nil
	}
	var created []int64
	for _, r := range rules {
		if !Eligible(r, s) {
			continue
		}
		if existing[r.FacultyID] {
			continue
		}
		created = append(created, r.FacultyID)
	}
	return created
}
