// Package workout drives one training day's workout through its phases:
// preview, warm-up, exercise and rest rounds, finisher, and completion.
//
// Every transition writes the whole session to a per-day continuity slot before
// it returns, so a crash right after a transition loses nothing. On start-up a
// recent snapshot is offered for resume.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progression"
)

// SnapshotStore holds one continuity slot per training day.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, dayID string, data []byte) error
	LoadSnapshot(ctx context.Context, dayID string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, dayID string) error
}

// LogStore persists finished workouts.
type LogStore interface {
	SaveWorkoutLog(ctx context.Context, l *models.WorkoutLog) error
}

// RecordDetector decides whether a set is a personal record.
type RecordDetector interface {
	IsPersonalRecord(ctx context.Context, c progression.Candidate) (bool, error)
}

// Pusher sends local changes to the shared store without blocking.
type Pusher interface {
	PushAfterWorkout(ctx context.Context)
}

// AchievementEvaluator unlocks achievements earned by the stored history.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context) ([]models.Achievement, error)
}

// Deps are the machine's collaborators. Pusher and Achievements may be nil.
type Deps struct {
	Snapshots    SnapshotStore
	Logs         LogStore
	Records      RecordDetector
	Pusher       Pusher
	Achievements AchievementEvaluator
}

// ResumeOffer describes a restorable snapshot found at start-up.
type ResumeOffer struct {
	CapturedAt time.Time       `json:"capturedAt"`
	Phase      Phase           `json:"phase"`
	Position   models.Position `json:"position"`
	SetsLogged int             `json:"setsLogged"`
}

// Machine runs one workout for one training day. It is not safe for concurrent use.
type Machine struct {
	day  models.TrainingDay
	deps Deps
	unit string
	now  func() time.Time
	log  *slog.Logger

	session Session
	offer   *Session
	saved   *models.WorkoutLog
}

// New creates a machine for day. Sets are logged in unit.
func New(day models.TrainingDay, deps Deps, unit string, log *slog.Logger) *Machine {
	m := &Machine{day: day, deps: deps, unit: unit, now: time.Now, log: log}
	m.session = m.freshSession()
	return m
}

// SetClock replaces the machine's time source.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session {
	return m.session.clone()
}

// Day returns the training day being run.
func (m *Machine) Day() models.TrainingDay {
	return m.day
}

// Start initialises a preview session and inspects the day's continuity slot.
//
// A valid snapshot younger than SnapshotTTL is returned as an offer; call Resume
// or Discard before anything else. A complete snapshot that still holds an
// unsaved log is committed instead. Anything else in the slot is deleted.
func (m *Machine) Start(ctx context.Context) (*ResumeOffer, error) {
	m.session = m.freshSession()
	m.offer = nil

	data, err := m.deps.Snapshots.LoadSnapshot(ctx, m.day.ID)
	if err != nil {
		return nil, fmt.Errorf("reading session snapshot: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	snap, err := decodeSnapshot(data)
	if err == nil {
		err = m.checkRestored(snap.Session)
	}
	if err != nil {
		m.log.Warn("discarding session snapshot", "day", m.day.ID, "error", err)
		return nil, m.deleteSnapshot(ctx)
	}

	if snap.Session.Phase == PhaseComplete && snap.Session.PendingLog != nil {
		m.session = snap.Session.clone()
		m.log.Info("recovering unsaved workout log", "day", m.day.ID, "log", m.session.PendingLog.ID)
		m.flagRecords(ctx)
		return nil, m.commit(ctx)
	}

	if !snap.Session.resumable() {
		return nil, m.deleteSnapshot(ctx)
	}
	if snap.expired(m.now()) {
		m.log.Info("discarding session snapshot", "day", m.day.ID, "error", ErrSnapshotStale, "captured_at", snap.CapturedAt)
		return nil, m.deleteSnapshot(ctx)
	}

	restored := snap.Session.clone()
	m.offer = &restored
	return &ResumeOffer{
		CapturedAt: snap.CapturedAt,
		Phase:      restored.Phase,
		Position:   restored.Position,
		SetsLogged: len(restored.CompletedSets),
	}, nil
}

// checkRestored rejects snapshots that do not fit the day as it is defined now.
func (m *Machine) checkRestored(s Session) error {
	if s.DayID != m.day.ID {
		return fmt.Errorf("%w: snapshot belongs to day %q", ErrSnapshotCorrupt, s.DayID)
	}
	if len(s.CompletedSets) > m.day.TotalPlannedSets() {
		return fmt.Errorf("%w: %d sets logged, %d planned", ErrSnapshotCorrupt, len(s.CompletedSets), m.day.TotalPlannedSets())
	}
	if (s.Phase == PhaseExercise || s.Phase == PhaseRest) && !m.day.Valid(s.Position) {
		return fmt.Errorf("%w: position %+v not in day", ErrSnapshotCorrupt, s.Position)
	}
	if len(s.WarmupChecked) != len(m.day.Warmup) || len(s.FinisherChecked) != len(m.day.Finisher) {
		return fmt.Errorf("%w: checklist length mismatch", ErrSnapshotCorrupt)
	}
	return nil
}

// Resume restores the offered snapshot verbatim.
func (m *Machine) Resume() error {
	if m.offer == nil {
		return fmt.Errorf("%w: no resume offer", ErrInvalidTransition)
	}
	m.session = *m.offer
	m.offer = nil
	return nil
}

// Discard drops the offered snapshot and stays in preview.
func (m *Machine) Discard(ctx context.Context) error {
	if m.offer == nil {
		return fmt.Errorf("%w: no resume offer", ErrInvalidTransition)
	}
	m.offer = nil
	return m.deleteSnapshot(ctx)
}

func (m *Machine) freshSession() Session {
	return Session{
		DayID:           m.day.ID,
		LogID:           uuid.NewString(),
		Phase:           PhasePreview,
		WarmupChecked:   make([]bool, len(m.day.Warmup)),
		FinisherChecked: make([]bool, len(m.day.Finisher)),
	}
}

// apply runs fn on a copy of the session, writes the snapshot, and only then
// makes the copy current. A failed write leaves the machine unchanged.
func (m *Machine) apply(ctx context.Context, allowed []Phase, fn func(s *Session) error) error {
	if m.offer != nil {
		return ErrResumePending
	}
	if !phaseIn(m.session.Phase, allowed) {
		return fmt.Errorf("%w: not allowed in %s", ErrInvalidTransition, m.session.Phase)
	}
	next := m.session.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.session = next
	return nil
}

// persist writes the continuity slot. Preview sessions are never written, and a
// complete session only while it holds an unsaved log.
func (m *Machine) persist(ctx context.Context, s Session) error {
	if s.Phase == PhasePreview || (s.Phase == PhaseComplete && s.PendingLog == nil) {
		return nil
	}
	data, err := encodeSnapshot(s, m.now())
	if err != nil {
		return err
	}
	if err := m.deps.Snapshots.SaveSnapshot(ctx, m.day.ID, data); err != nil {
		return fmt.Errorf("writing session snapshot: %w", err)
	}
	return nil
}

func (m *Machine) deleteSnapshot(ctx context.Context) error {
	if err := m.deps.Snapshots.DeleteSnapshot(ctx, m.day.ID); err != nil {
		return fmt.Errorf("deleting session snapshot: %w", err)
	}
	return nil
}

func phaseIn(p Phase, allowed []Phase) bool {
	for _, a := range allowed {
		if p == a {
			return true
		}
	}
	return false
}

// RestRemaining returns the time left on the rest countdown, or zero outside rest.
func (m *Machine) RestRemaining() time.Duration {
	if m.session.Phase != PhaseRest || m.session.RestEndsAt == nil {
		return 0
	}
	return max(m.session.RestEndsAt.Sub(m.now()), 0)
}

// Current returns the planned exercise at the current position, or false outside
// the exercise and rest phases.
func (m *Machine) Current() (models.PlannedExercise, bool) {
	p := m.session.Phase
	if (p != PhaseExercise && p != PhaseRest) || !m.day.Valid(m.session.Position) {
		return models.PlannedExercise{}, false
	}
	return m.day.ExerciseAt(m.session.Position), true
}
