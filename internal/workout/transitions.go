package workout

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// SetInput is what the user enters for one set.
type SetInput struct {
	Weight float64
	Reps   int
	RPE    *float64
}

func (in SetInput) validate() error {
	if in.Weight < 0 || in.Reps < 0 {
		return fmt.Errorf("%w: weight %v, reps %d", ErrInvalidSet, in.Weight, in.Reps)
	}
	if in.RPE != nil && (*in.RPE < 1 || *in.RPE > 10) {
		return fmt.Errorf("%w: rpe %v", ErrInvalidSet, *in.RPE)
	}
	return nil
}

// Begin leaves preview for the warm-up, or straight for the first set when the
// day has no warm-up.
func (m *Machine) Begin(ctx context.Context) error {
	if m.day.TotalPlannedSets() == 0 {
		return ErrNothingPlanned
	}
	return m.apply(ctx, []Phase{PhasePreview}, func(s *Session) error {
		s.StartTime = m.now()
		if m.day.HasWarmup() {
			s.Phase = PhaseWarmup
			return nil
		}
		m.enterMainWork(s)
		return nil
	})
}

func (m *Machine) enterMainWork(s *Session) {
	first, _ := m.day.First()
	s.Phase = PhaseExercise
	s.Position = first
}

// ToggleWarmup flips warm-up item i.
func (m *Machine) ToggleWarmup(ctx context.Context, i int) error {
	return m.apply(ctx, []Phase{PhaseWarmup}, func(s *Session) error {
		return toggle(s.WarmupChecked, i)
	})
}

// StartExercises leaves the warm-up once every item is checked.
func (m *Machine) StartExercises(ctx context.Context) error {
	return m.apply(ctx, []Phase{PhaseWarmup}, func(s *Session) error {
		if !allChecked(s.WarmupChecked) {
			return ErrChecklistIncomplete
		}
		m.enterMainWork(s)
		return nil
	})
}

// ToggleFinisher flips finisher item i.
func (m *Machine) ToggleFinisher(ctx context.Context, i int) error {
	return m.apply(ctx, []Phase{PhaseFinisher}, func(s *Session) error {
		return toggle(s.FinisherChecked, i)
	})
}

func toggle(items []bool, i int) error {
	if i < 0 || i >= len(items) {
		return fmt.Errorf("%w: item %d of %d", ErrSetIndex, i, len(items))
	}
	items[i] = !items[i]
	return nil
}

// CompleteSet logs the set at the current position and advances. After the last
// planned set the machine moves to the finisher, or completes the workout when
// the day has none; otherwise it rests before the next set.
func (m *Machine) CompleteSet(ctx context.Context, in SetInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if m.offer != nil {
		return ErrResumePending
	}
	if m.session.Phase != PhaseExercise {
		return fmt.Errorf("%w: not allowed in %s", ErrInvalidTransition, m.session.Phase)
	}

	next := m.session.clone()
	pos := next.Position
	if !m.day.Valid(pos) || len(next.CompletedSets) >= m.day.TotalPlannedSets() {
		return fmt.Errorf("%w: position %+v has no planned set", ErrInvalidTransition, pos)
	}
	planned := m.day.ExerciseAt(pos)
	now := m.now()

	next.CompletedSets = append(next.CompletedSets, models.SetLog{
		ExerciseID:  planned.ExerciseID,
		SetNumber:   pos.SetNumber,
		TargetReps:  planned.TargetReps,
		ActualReps:  in.Reps,
		Weight:      in.Weight,
		Unit:        m.unit,
		RPE:         in.RPE,
		CompletedAt: now,
	})
	next.CurrentVolume += in.Weight * float64(in.Reps)

	following, ok := m.day.Next(pos)
	if !ok {
		if m.day.HasFinisher() {
			next.Phase = PhaseFinisher
			return m.commitTransition(ctx, next)
		}
		return m.finish(ctx, next)
	}

	next.Position = following
	next.Phase = PhaseRest
	restEnds := now.Add(time.Duration(m.day.ExerciseAt(following).RestSeconds) * time.Second)
	next.RestEndsAt = &restEnds
	return m.commitTransition(ctx, next)
}

// commitTransition persists next and makes it current.
func (m *Machine) commitTransition(ctx context.Context, next Session) error {
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.session = next
	return nil
}

// FinishRest ends the rest countdown, on expiry or skip.
func (m *Machine) FinishRest(ctx context.Context) error {
	return m.apply(ctx, []Phase{PhaseRest}, func(s *Session) error {
		s.Phase = PhaseExercise
		s.RestEndsAt = nil
		return nil
	})
}

// EditSet changes the weight, reps and RPE of logged set i. Phase and position
// are unchanged; the running volume moves by exactly the difference.
func (m *Machine) EditSet(ctx context.Context, i int, in SetInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return m.apply(ctx, []Phase{PhaseExercise, PhaseRest, PhaseFinisher}, func(s *Session) error {
		if i < 0 || i >= len(s.CompletedSets) {
			return fmt.Errorf("%w: set %d of %d", ErrSetIndex, i, len(s.CompletedSets))
		}
		set := &s.CompletedSets[i]
		s.CurrentVolume += in.Weight*float64(in.Reps) - set.Weight*float64(set.ActualReps)
		set.Weight = in.Weight
		set.ActualReps = in.Reps
		set.RPE = in.RPE
		return nil
	})
}

// FinishFinisher completes the workout once every finisher item is checked.
func (m *Machine) FinishFinisher(ctx context.Context) error {
	if m.offer != nil {
		return ErrResumePending
	}
	if m.session.Phase != PhaseFinisher {
		return fmt.Errorf("%w: not allowed in %s", ErrInvalidTransition, m.session.Phase)
	}
	if !allChecked(m.session.FinisherChecked) {
		return ErrChecklistIncomplete
	}
	return m.finish(ctx, m.session.clone())
}
