package workout

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progression"
)

// LogSource tags workout logs recorded by the state machine.
const LogSource = "ironlog"

// Complete ends the workout early and saves what was logged.
func (m *Machine) Complete(ctx context.Context) error {
	if m.offer != nil {
		return ErrResumePending
	}
	if !phaseIn(m.session.Phase, []Phase{PhaseWarmup, PhaseExercise, PhaseRest, PhaseFinisher}) {
		return fmt.Errorf("%w: not allowed in %s", ErrInvalidTransition, m.session.Phase)
	}
	return m.finish(ctx, m.session.clone())
}

// Abandon ends the workout. With save set and at least one set logged it
// completes and saves the log; otherwise the session and its snapshot are dropped.
func (m *Machine) Abandon(ctx context.Context, save bool) error {
	if m.offer != nil {
		return ErrResumePending
	}
	if m.session.Phase == PhaseComplete {
		return fmt.Errorf("%w: workout already complete", ErrInvalidTransition)
	}
	if save && len(m.session.CompletedSets) > 0 {
		return m.Complete(ctx)
	}
	if err := m.deleteSnapshot(ctx); err != nil {
		return err
	}
	m.log.Info("workout discarded", "day", m.day.ID, "sets", len(m.session.CompletedSets))
	m.session = m.freshSession()
	return nil
}

// RetryCommit saves a log whose earlier save failed.
func (m *Machine) RetryCommit(ctx context.Context) error {
	if m.session.Phase != PhaseComplete || m.session.PendingLog == nil {
		return fmt.Errorf("%w: no unsaved log", ErrInvalidTransition)
	}
	m.flagRecords(ctx)
	return m.commit(ctx)
}

// SavedLog returns the log stored by the last successful completion, or nil.
func (m *Machine) SavedLog() *models.WorkoutLog {
	return m.saved
}

// finish builds the log from s and holds it in a complete snapshot. Only then
// are personal records detected, since detection stores PR rows.
func (m *Machine) finish(ctx context.Context, s Session) error {
	if len(s.CompletedSets) == 0 {
		return ErrNothingLogged
	}
	s.PendingLog = m.buildLog(s, m.now())
	s.Phase = PhaseComplete
	s.RestEndsAt = nil
	s.RecordsChecked = false
	if err := m.commitTransition(ctx, s); err != nil {
		return err
	}
	m.flagRecords(ctx)
	return m.commit(ctx)
}

// flagRecords runs PR detection for the pending log once and records the
// flags on it. A failed snapshot write keeps the flags in memory only.
func (m *Machine) flagRecords(ctx context.Context) {
	if m.session.RecordsChecked {
		return
	}
	s := m.session.clone()
	s.PendingLog.PersonalRecords = m.detectRecords(ctx, s)
	s.RecordsChecked = true
	if err := m.persist(ctx, s); err != nil {
		m.log.Warn("personal record flags not persisted", "day", m.day.ID, "error", err)
	}
	m.session = s
}

// commit stores the pending log, removes the snapshot, and kicks the post-workout
// work. On a failed save the session keeps the log for RetryCommit.
func (m *Machine) commit(ctx context.Context) error {
	l := m.session.PendingLog
	if err := m.deps.Logs.SaveWorkoutLog(ctx, l); err != nil {
		m.log.Error("saving workout log", "day", m.day.ID, "log", l.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	m.saved = l
	m.session.PendingLog = nil

	// The log is stored under a fixed id, so a leftover slot is recovered idempotently.
	if err := m.deleteSnapshot(ctx); err != nil {
		m.log.Warn("workout saved but snapshot kept", "day", m.day.ID, "error", err)
	}

	m.log.Info("workout saved", "day", m.day.ID, "log", l.ID, "sets", len(l.Sets),
		"volume", l.TotalVolume, "prs", len(l.PersonalRecords))

	if m.deps.Pusher != nil {
		m.deps.Pusher.PushAfterWorkout(ctx)
	}
	if m.deps.Achievements != nil {
		unlocked, err := m.deps.Achievements.Evaluate(ctx)
		if err != nil {
			m.log.Warn("evaluating achievements", "error", err)
		}
		for _, a := range unlocked {
			m.log.Info("achievement unlocked", "code", a.Code)
		}
	}
	return nil
}

func (m *Machine) buildLog(s Session, now time.Time) *models.WorkoutLog {
	completed := now
	return &models.WorkoutLog{
		SyncMeta:        models.SyncMeta{ID: s.LogID},
		DayID:           m.day.ID,
		ProgramID:       m.day.ProgramID,
		Name:            m.day.Name,
		StartedAt:       s.StartTime,
		CompletedAt:     &completed,
		DurationSeconds: int(now.Sub(s.StartTime).Seconds()),
		TotalVolume:     s.CurrentVolume,
		Sets:            append([]models.SetLog(nil), s.CompletedSets...),
		Source:          LogSource,
	}
}

// detectRecords offers each touched exercise's best set (heaviest, then most
// reps) for PR detection and returns the exercise ids that set a record.
// Detection failures are logged; they never block saving the workout.
func (m *Machine) detectRecords(ctx context.Context, s Session) []string {
	var order []string
	best := make(map[string]models.SetLog)
	for _, set := range s.CompletedSets {
		cur, seen := best[set.ExerciseID]
		if !seen {
			order = append(order, set.ExerciseID)
			best[set.ExerciseID] = set
			continue
		}
		if set.Weight > cur.Weight || (set.Weight == cur.Weight && set.ActualReps > cur.ActualReps) {
			best[set.ExerciseID] = set
		}
	}

	var prs []string
	for _, id := range order {
		set := best[id]
		ok, err := m.deps.Records.IsPersonalRecord(ctx, progression.Candidate{
			ExerciseID:   id,
			Weight:       set.Weight,
			Reps:         set.ActualReps,
			Unit:         set.Unit,
			WorkoutLogID: s.LogID,
			AchievedAt:   set.CompletedAt,
		})
		if err != nil {
			m.log.Warn("personal record check failed", "exercise", id, "error", err)
			continue
		}
		if ok {
			prs = append(prs, id)
		}
	}
	return prs
}
