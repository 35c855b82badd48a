package models

import "testing"

func plan(sets ...int) []PlannedExercise {
	var out []PlannedExercise
	for _, n := range sets {
		out = append(out, PlannedExercise{Sets: n})
	}
	return out
}

// walk collects every position from First through Next.
func walk(d TrainingDay) []Position {
	var out []Position
	p, ok := d.First()
	for ok {
		out = append(out, p)
		p, ok = d.Next(p)
	}
	return out
}

// TestNextSuperset verifies exercises alternate within a superset, round by round.
func TestNextSuperset(t *testing.T) {
	d := TrainingDay{Supersets: []Superset{{Exercises: plan(2, 2)}}}
	want := []Position{{0, 0, 1}, {0, 1, 1}, {0, 0, 2}, {0, 1, 2}}

	got := walk(d)
	if len(got) != len(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestNextUnevenAndEmpty verifies short exercises drop out of later rounds and
// empty supersets are skipped.
func TestNextUnevenAndEmpty(t *testing.T) {
	d := TrainingDay{Supersets: []Superset{
		{Exercises: plan(3, 1)},
		{},
		{Exercises: plan(0, 2)},
	}}
	want := []Position{
		{0, 0, 1}, {0, 1, 1}, {0, 0, 2}, {0, 0, 3},
		{2, 1, 1}, {2, 1, 2},
	}

	got := walk(d)
	if len(got) != len(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
		if !d.Valid(got[i]) {
			t.Errorf("position %v not valid", got[i])
		}
	}
	if n := d.TotalPlannedSets(); n != len(want) {
		t.Errorf("TotalPlannedSets = %d, want %d", n, len(want))
	}
}

// TestFirstEmptyDay verifies a day with nothing planned has no first position.
func TestFirstEmptyDay(t *testing.T) {
	d := TrainingDay{Supersets: []Superset{{Exercises: plan(0)}}}
	if p, ok := d.First(); ok {
		t.Errorf("First() = %v, want none", p)
	}
}

// TestValid verifies out-of-range positions are rejected.
func TestValid(t *testing.T) {
	d := TrainingDay{Supersets: []Superset{{Exercises: plan(2)}}}
	tests := []struct {
		p    Position
		want bool
	}{
		{Position{0, 0, 1}, true},
		{Position{0, 0, 2}, true},
		{Position{0, 0, 3}, false},
		{Position{0, 0, 0}, false},
		{Position{0, 1, 1}, false},
		{Position{1, 0, 1}, false},
		{Position{-1, 0, 1}, false},
	}
	for _, tt := range tests {
		if got := d.Valid(tt.p); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

// TestPersonalRecordBeats verifies the weight-then-reps ordering.
func TestPersonalRecordBeats(t *testing.T) {
	pr := PersonalRecord{Weight: 100, Reps: 5}
	tests := []struct {
		weight float64
		reps   int
		want   bool
	}{
		{100, 6, true},
		{95, 8, false},
		{100, 4, false},
		{100, 5, false},
		{105, 1, true},
	}
	for _, tt := range tests {
		if got := pr.Beats(tt.weight, tt.reps); got != tt.want {
			t.Errorf("Beats(%v, %d) = %v, want %v", tt.weight, tt.reps, got, tt.want)
		}
	}
}
