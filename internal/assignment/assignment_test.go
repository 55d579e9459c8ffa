package assignment

import "testing"

func classes(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func TestMatch(t *testing.T) {
	rules := []Rule{
		{FacultyID: 1, Classes: classes("10th"), Stream: AllStreams()},
		{FacultyID: 2, Classes: classes("10th", "12th"), Stream: NamedStream("Science")},
		{FacultyID: 3, Classes: classes("10th"), Stream: NamedStream("Commerce")},
		{FacultyID: 4, Classes: classes("9th"), Stream: AllStreams()},
	}

	tests := []struct {
		name     string
		student  Student
		existing map[int64]bool
		want     []int64
	}{
		{
			name:    "stream match plus all-streams faculty",
			student: Student{ID: 7, Standard: "10th", Stream: NamedStream("Science")},
			want:    []int64{1, 2},
		},
		{
			name:    "student without stream matches every stream",
			student: Student{ID: 7, Standard: "10th", Stream: AllStreams()},
			want:    []int64{1, 2, 3},
		},
		{
			name:    "class filters first",
			student: Student{ID: 7, Standard: "9th", Stream: NamedStream("Science")},
			want:    []int64{4},
		},
		{
			name:    "no standard matches nobody",
			student: Student{ID: 7, Stream: NamedStream("Science")},
			want:    nil,
		},
		{
			name:    "unknown class matches nobody",
			student: Student{ID: 7, Standard: "11th", Stream: NamedStream("Science")},
			want:    nil,
		},
		{
			name:     "existing links are skipped",
			student:  Student{ID: 7, Standard: "10th", Stream: NamedStream("Science")},
			existing: map[int64]bool{1: true},
			want:     []int64{2},
		},
		{
			name:     "rerun with all links present is a no-op",
			student:  Student{ID: 7, Standard: "10th", Stream: NamedStream("Science")},
			existing: map[int64]bool{1: true, 2: true},
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.student, rules, tt.existing)
			if len(got) != len(tt.want) {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Match() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNamedStreamEmptyIsAll(t *testing.T) {
	if !NamedStream("").IsAll() {
		t.Error("empty stream name should behave as all streams")
	}
	if NamedStream("Arts").IsAll() {
		t.Error("named stream should not be all streams")
	}
	if got := NamedStream("Arts").Name(); got != "Arts" {
		t.Errorf("Name() = %q, want Arts", got)
	}
}
