package models

// Position addresses one planned set inside a training day.
// SetNumber is 1-based; the indexes are 0-based.
type Position struct {
	SupersetIndex int `json:"supersetIndex"`
	ExerciseIndex int `json:"exerciseIndex"`
	SetNumber     int `json:"setNumber"`
}

// TotalPlannedSets is the number of sets logged by a full pass through the day.
func (d TrainingDay) TotalPlannedSets() int {
	total := 0
	for _, ss := range d.Supersets {
		for _, ex := range ss.Exercises {
			if ex.Sets > 0 {
				total += ex.Sets
			}
		}
	}
	return total
}

// HasWarmup reports whether the day starts with a warm-up checklist.
func (d TrainingDay) HasWarmup() bool { return len(d.Warmup) > 0 }

// HasFinisher reports whether the day ends with a finisher checklist.
func (d TrainingDay) HasFinisher() bool { return len(d.Finisher) > 0 }

// Valid reports whether p indexes a real planned set of the day.
func (d TrainingDay) Valid(p Position) bool {
	if p.SupersetIndex < 0 || p.SupersetIndex >= len(d.Supersets) {
		return false
	}
	exs := d.Supersets[p.SupersetIndex].Exercises
	if p.ExerciseIndex < 0 || p.ExerciseIndex >= len(exs) {
		return false
	}
	return p.SetNumber >= 1 && p.SetNumber <= exs[p.ExerciseIndex].Sets
}

// ExerciseAt returns the planned exercise at p. p must be valid.
func (d TrainingDay) ExerciseAt(p Position) PlannedExercise {
	return d.Supersets[p.SupersetIndex].Exercises[p.ExerciseIndex]
}

// First returns the first planned set of the day, or false if nothing is planned.
func (d TrainingDay) First() (Position, bool) {
	return d.nextFrom(Position{SupersetIndex: 0, ExerciseIndex: -1, SetNumber: 1})
}

// Next returns the planned set after p, or false when the main work is done.
//
// Within a superset the exercises are visited in order for set 1, then again for
// set 2, and so on. A round only visits exercises that plan at least that many
// sets, and the superset ends after its largest planned set count.
func (d TrainingDay) Next(p Position) (Position, bool) {
	return d.nextFrom(p)
}

func (d TrainingDay) nextFrom(p Position) (Position, bool) {
	si, ei, set := p.SupersetIndex, p.ExerciseIndex+1, p.SetNumber
	for si < len(d.Supersets) {
		exs := d.Supersets[si].Exercises
		maxSets := 0
		for _, ex := range exs {
			maxSets = max(maxSets, ex.Sets)
		}
		for set <= maxSets {
			for ; ei < len(exs); ei++ {
				if exs[ei].Sets >= set {
					return Position{SupersetIndex: si, ExerciseIndex: ei, SetNumber: set}, true
				}
			}
			ei = 0
			set++
		}
		si++
		ei = 0
		set = 1
	}
	return Position{}, false
}
