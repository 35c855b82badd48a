package workout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshots struct {
	mu      sync.Mutex
	slots   map[string][]byte
	saves   int
	failErr error
}

func newMemSnapshots() *memSnapshots { return &memSnapshots{slots: map[string][]byte{}} }

func (m *memSnapshots) SaveSnapshot(ctx context.Context, dayID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.slots[dayID] = append([]byte(nil), data...)
	return nil
}

func (m *memSnapshots) LoadSnapshot(ctx context.Context, dayID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[dayID], nil
}

func (m *memSnapshots) DeleteSnapshot(ctx context.Context, dayID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, dayID)
	return nil
}

func (m *memSnapshots) has(dayID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[dayID]
	return ok
}

type memLogs struct {
	saved   []models.WorkoutLog
	failErr error
}

func (m *memLogs) SaveWorkoutLog(ctx context.Context, l *models.WorkoutLog) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.saved = append(m.saved, *l)
	return nil
}

// fakeRecords reports a PR for every exercise in prs and records the candidates.
type fakeRecords struct {
	prs        map[string]bool
	candidates []progression.Candidate
}

func (f *fakeRecords) IsPersonalRecord(ctx context.Context, c progression.Candidate) (bool, error) {
	f.candidates = append(f.candidates, c)
	return f.prs[c.ExerciseID], nil
}

type countingPusher struct{ n int }

func (p *countingPusher) PushAfterWorkout(ctx context.Context) { p.n++ }

type countingAchievements struct{ n int }

func (a *countingAchievements) Evaluate(ctx context.Context) ([]models.Achievement, error) {
	a.n++
	return nil, nil
}

type harness struct {
	snaps   *memSnapshots
	logs    *memLogs
	records *fakeRecords
	pusher  *countingPusher
	achs    *countingAchievements
	now     time.Time
}

func newHarness() *harness {
	return &harness{
		snaps:   newMemSnapshots(),
		logs:    &memLogs{},
		records: &fakeRecords{prs: map[string]bool{}},
		pusher:  &countingPusher{},
		achs:    &countingAchievements{},
		now:     time.Date(2026, 7, 1, 17, 0, 0, 0, time.UTC),
	}
}

func (h *harness) machine(day models.TrainingDay) *Machine {
	m := New(day, Deps{
		Snapshots:    h.snaps,
		Logs:         h.logs,
		Records:      h.records,
		Pusher:       h.pusher,
		Achievements: h.achs,
	}, "kg", slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.SetClock(func() time.Time { return h.now })
	return m
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func pos(si, ei, set int) models.Position {
	return models.Position{SupersetIndex: si, ExerciseIndex: ei, SetNumber: set}
}

func scenarioDay() models.TrainingDay {
	return models.TrainingDay{
		SyncMeta:  models.SyncMeta{ID: "day-a"},
		ProgramID: "prog-1",
		Name:      "Day A",
		Supersets: []models.Superset{{Label: "A", Exercises: []models.PlannedExercise{
			{ExerciseID: "a1", Sets: 2, TargetReps: 8, RestSeconds: 90},
			{ExerciseID: "a2", Sets: 2, TargetReps: 10, RestSeconds: 60},
		}}},
	}
}

func set(w float64, r int) SetInput { return SetInput{Weight: w, Reps: r} }

// TestEndToEndScenario walks the two-exercise superset through every set.
func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())

	offer, err := m.Start(ctx)
	require.NoError(t, err)
	assert.Nil(t, offer)
	assert.Equal(t, PhasePreview, m.Session().Phase)

	require.NoError(t, m.Begin(ctx))
	assert.Equal(t, PhaseExercise, m.Session().Phase)

	want := []models.Position{pos(0, 0, 1), pos(0, 1, 1), pos(0, 0, 2), pos(0, 1, 2)}
	for i, p := range want {
		require.Equal(t, p, m.Session().Position, "before set %d", i+1)
		h.advance(2 * time.Minute)
		require.NoError(t, m.CompleteSet(ctx, set(50, 8)))
		if i < len(want)-1 {
			s := m.Session()
			require.Equal(t, PhaseRest, s.Phase)
			require.NotNil(t, s.RestEndsAt)
			rest := m.Day().ExerciseAt(s.Position).RestSeconds
			assert.Equal(t, h.now.Add(time.Duration(rest)*time.Second), *s.RestEndsAt, "rest uses the next exercise")
			require.NoError(t, m.FinishRest(ctx))
		}
	}

	s := m.Session()
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Len(t, s.CompletedSets, 4)
	assert.Nil(t, s.PendingLog)

	require.Len(t, h.logs.saved, 1)
	l := h.logs.saved[0]
	assert.Equal(t, s.LogID, l.ID)
	assert.Equal(t, "day-a", l.DayID)
	assert.Equal(t, "prog-1", l.ProgramID)
	assert.Len(t, l.Sets, 4)
	assert.Equal(t, 1600.0, l.TotalVolume)
	assert.Equal(t, 8*60, l.DurationSeconds)
	require.NotNil(t, l.CompletedAt)

	assert.False(t, h.snaps.has("day-a"), "snapshot deleted on completion")
	assert.Equal(t, 1, h.pusher.n)
	assert.Equal(t, 1, h.achs.n)

	assert.ErrorIs(t, m.CompleteSet(ctx, set(50, 8)), ErrInvalidTransition)
}

// TestPositionValidity checks random day shapes: the position always indexes a
// planned set and the machine completes after exactly the planned number of sets.
func TestPositionValidity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		day := models.TrainingDay{SyncMeta: models.SyncMeta{ID: "rand"}}
		supersets := 1 + rng.Intn(4)
		for si := 0; si < supersets; si++ {
			var exs []models.PlannedExercise
			exercises := rng.Intn(4)
			for ei := 0; ei < exercises; ei++ {
				exs = append(exs, models.PlannedExercise{ExerciseID: "e", Sets: rng.Intn(5), TargetReps: 5})
			}
			day.Supersets = append(day.Supersets, models.Superset{Exercises: exs})
		}
		total := day.TotalPlannedSets()

		ctx := context.Background()
		m := newHarness().machine(day)
		if total == 0 {
			assert.ErrorIs(t, m.Begin(ctx), ErrNothingPlanned)
			continue
		}
		require.NoError(t, m.Begin(ctx))

		calls := 0
		for m.Session().Phase != PhaseComplete {
			s := m.Session()
			require.True(t, day.Valid(s.Position), "iter %d: invalid position %+v", iter, s.Position)
			if s.Phase == PhaseRest {
				require.NoError(t, m.FinishRest(ctx))
				continue
			}
			require.NoError(t, m.CompleteSet(ctx, set(20, 5)))
			calls++
			require.LessOrEqual(t, calls, total)
		}
		assert.Equal(t, total, calls, "iter %d", iter)
		assert.Len(t, m.Session().CompletedSets, total)
	}
}

// TestWarmupAndFinisher verifies both checklists gate their transitions.
func TestWarmupAndFinisher(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	day := models.TrainingDay{
		SyncMeta: models.SyncMeta{ID: "day-b"},
		Warmup:   []models.ChecklistItem{{Name: "Bike"}, {Name: "Band pull-aparts"}},
		Supersets: []models.Superset{{Exercises: []models.PlannedExercise{
			{ExerciseID: "squat", Sets: 1, TargetReps: 5},
		}}},
		Finisher: []models.ChecklistItem{{Name: "Plank"}},
	}
	m := h.machine(day)

	require.NoError(t, m.Begin(ctx))
	assert.Equal(t, PhaseWarmup, m.Session().Phase)
	assert.True(t, h.snaps.has("day-b"))

	assert.ErrorIs(t, m.StartExercises(ctx), ErrChecklistIncomplete)
	assert.ErrorIs(t, m.ToggleWarmup(ctx, 2), ErrSetIndex)
	require.NoError(t, m.ToggleWarmup(ctx, 0))
	require.NoError(t, m.ToggleWarmup(ctx, 1))
	require.NoError(t, m.StartExercises(ctx))
	assert.Equal(t, pos(0, 0, 1), m.Session().Position)

	require.NoError(t, m.CompleteSet(ctx, set(100, 5)))
	assert.Equal(t, PhaseFinisher, m.Session().Phase)
	assert.Empty(t, h.logs.saved)

	assert.ErrorIs(t, m.FinishFinisher(ctx), ErrChecklistIncomplete)
	require.NoError(t, m.ToggleFinisher(ctx, 0))
	require.NoError(t, m.FinishFinisher(ctx))
	assert.Equal(t, PhaseComplete, m.Session().Phase)
	assert.Len(t, h.logs.saved, 1)
}

// TestVolumeDelta verifies edits move the running volume by exactly their
// difference and never touch phase or position.
func TestVolumeDelta(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	day := models.TrainingDay{
		SyncMeta: models.SyncMeta{ID: "vol"},
		Supersets: []models.Superset{{Exercises: []models.PlannedExercise{
			{ExerciseID: "x", Sets: 10, TargetReps: 5},
		}}},
	}
	m := h.machine(day)
	require.NoError(t, m.Begin(ctx))
	for i := 0; i < 5; i++ {
		require.NoError(t, m.CompleteSet(ctx, set(40+2.5*float64(i), 5)))
		require.NoError(t, m.FinishRest(ctx))
	}

	rng := rand.New(rand.NewSource(7))
	before := m.Session()
	for i := 0; i < 500; i++ {
		idx := rng.Intn(5)
		old := m.Session().CompletedSets[idx]
		prevVolume := m.Session().CurrentVolume

		w := float64(rng.Intn(400)) * 0.25
		r := rng.Intn(15)
		require.NoError(t, m.EditSet(ctx, idx, set(w, r)))

		s := m.Session()
		assert.Equal(t, prevVolume+(w*float64(r)-old.Weight*float64(old.ActualReps)), s.CurrentVolume)
		assert.Equal(t, before.Phase, s.Phase)
		assert.Equal(t, before.Position, s.Position)
	}

	recomputed := 0.0
	for _, s := range m.Session().CompletedSets {
		recomputed += s.Volume()
	}
	assert.InDelta(t, recomputed, m.Session().CurrentVolume, 1e-9)

	assert.ErrorIs(t, m.EditSet(ctx, 5, set(1, 1)), ErrSetIndex)
	assert.ErrorIs(t, m.EditSet(ctx, 0, set(-1, 1)), ErrInvalidSet)
}

// TestResumeFidelity verifies a restart restores the session exactly.
func TestResumeFidelity(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))
	rpe := 8.5
	require.NoError(t, m.CompleteSet(ctx, SetInput{Weight: 60, Reps: 8, RPE: &rpe}))
	require.NoError(t, m.FinishRest(ctx))
	require.NoError(t, m.CompleteSet(ctx, set(30, 10)))
	require.NoError(t, m.EditSet(ctx, 0, set(62.5, 7)))
	before := m.Session()

	h.advance(20 * time.Minute)
	restarted := h.machine(scenarioDay())
	offer, err := restarted.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, PhaseRest, offer.Phase)
	assert.Equal(t, 2, offer.SetsLogged)

	assert.ErrorIs(t, restarted.Begin(ctx), ErrResumePending)
	require.NoError(t, restarted.Resume())
	assert.Equal(t, before, restarted.Session())
	assert.Equal(t, before.CurrentVolume, restarted.Session().CurrentVolume)

	// The restored machine carries on from the same position.
	require.NoError(t, restarted.FinishRest(ctx))
	assert.Equal(t, pos(0, 0, 2), restarted.Session().Position)
}

// TestDiscardOffer verifies declining a resume deletes the slot.
func TestDiscardOffer(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))

	restarted := h.machine(scenarioDay())
	offer, err := restarted.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, offer)
	require.NoError(t, restarted.Discard(ctx))
	assert.False(t, h.snaps.has("day-a"))
	assert.Equal(t, PhasePreview, restarted.Session().Phase)
	require.NoError(t, restarted.Begin(ctx))
}

// TestSnapshotExpiry verifies snapshots older than six hours are never offered.
func TestSnapshotExpiry(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct {
		age       time.Duration
		wantOffer bool
	}{
		{5*time.Hour + 59*time.Minute, true},
		{6 * time.Hour, false},
		{48 * time.Hour, false},
	} {
		h := newHarness()
		require.NoError(t, h.machine(scenarioDay()).Begin(ctx))
		h.advance(tt.age)

		offer, err := h.machine(scenarioDay()).Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, tt.wantOffer, offer != nil, "age %v", tt.age)
		assert.Equal(t, tt.wantOffer, h.snaps.has("day-a"), "age %v: stale slot deleted", tt.age)
	}
}

// TestCorruptSnapshot verifies an unreadable slot is treated as no snapshot.
func TestCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	for name, data := range map[string]string{
		"garbage":       `{not json`,
		"no phase":      `{"capturedAt":"2026-07-01T16:00:00Z","session":{}}`,
		"wrong day":     `{"capturedAt":"2026-07-01T16:00:00Z","session":{"dayId":"other","phase":"exercise","position":{"supersetIndex":0,"exerciseIndex":0,"setNumber":1},"warmupChecked":[],"finisherChecked":[]}}`,
		"bad position":  `{"capturedAt":"2026-07-01T16:00:00Z","session":{"dayId":"day-a","phase":"exercise","position":{"supersetIndex":3,"exerciseIndex":0,"setNumber":1},"warmupChecked":[],"finisherChecked":[]}}`,
		"preview phase": `{"capturedAt":"2026-07-01T16:00:00Z","session":{"dayId":"day-a","phase":"preview","warmupChecked":[],"finisherChecked":[]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			h.snaps.slots["day-a"] = []byte(data)
			m := h.machine(scenarioDay())

			offer, err := m.Start(ctx)
			require.NoError(t, err)
			assert.Nil(t, offer)
			assert.False(t, h.snaps.has("day-a"))
			assert.Equal(t, PhasePreview, m.Session().Phase)
		})
	}
}

// TestPreviewNotPersisted verifies nothing is written before the workout begins.
func TestPreviewNotPersisted(t *testing.T) {
	h := newHarness()
	_, err := h.machine(scenarioDay()).Start(context.Background())
	require.NoError(t, err)
	assert.Zero(t, h.snaps.saves)
}

// TestSnapshotWriteFailure verifies a failed write leaves the session unchanged.
func TestSnapshotWriteFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))
	before := m.Session()

	h.snaps.failErr = errors.New("disk full")
	assert.Error(t, m.CompleteSet(ctx, set(50, 8)))
	assert.Equal(t, before, m.Session())
}

// TestCommitFailureKeepsLog verifies a failed save holds the log for retry and
// survives a restart.
func TestCommitFailureKeepsLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	day := models.TrainingDay{
		SyncMeta: models.SyncMeta{ID: "day-a"},
		Supersets: []models.Superset{{Exercises: []models.PlannedExercise{
			{ExerciseID: "a1", Sets: 1, TargetReps: 5},
		}}},
	}
	m := h.machine(day)
	require.NoError(t, m.Begin(ctx))

	h.logs.failErr = errors.New("db locked")
	err := m.CompleteSet(ctx, set(100, 5))
	require.ErrorIs(t, err, ErrCommitFailed)

	s := m.Session()
	assert.Equal(t, PhaseComplete, s.Phase)
	require.NotNil(t, s.PendingLog)
	assert.True(t, h.snaps.has("day-a"), "snapshot kept while the log is unsaved")
	assert.Zero(t, h.pusher.n)

	assert.ErrorIs(t, m.RetryCommit(ctx), ErrCommitFailed)
	assert.ErrorIs(t, m.Abandon(ctx, false), ErrInvalidTransition, "an unsaved log cannot be discarded")

	// Restart long after the TTL: the pending log is still recovered.
	h.advance(24 * time.Hour)
	h.logs.failErr = nil
	restarted := h.machine(day)
	offer, err := restarted.Start(ctx)
	require.NoError(t, err)
	assert.Nil(t, offer, "a complete snapshot is never offered for resume")
	require.Len(t, h.logs.saved, 1)
	assert.Equal(t, s.PendingLog.ID, h.logs.saved[0].ID)
	assert.False(t, h.snaps.has("day-a"))
	assert.Equal(t, 1, h.pusher.n)
	assert.Len(t, h.records.candidates, 1, "PR detection is not repeated on recovery")
}

// TestRetryCommit verifies the same machine can save once storage recovers.
func TestRetryCommit(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))
	require.NoError(t, m.CompleteSet(ctx, set(50, 8)))

	h.logs.failErr = errors.New("offline")
	require.ErrorIs(t, m.Complete(ctx), ErrCommitFailed)

	h.logs.failErr = nil
	require.NoError(t, m.RetryCommit(ctx))
	require.Len(t, h.logs.saved, 1)
	assert.Len(t, h.logs.saved[0].Sets, 1)
	assert.NotNil(t, m.SavedLog())
	assert.ErrorIs(t, m.RetryCommit(ctx), ErrInvalidTransition)
}

// TestAbandon covers the discard choices.
func TestAbandon(t *testing.T) {
	ctx := context.Background()

	t.Run("zero sets", func(t *testing.T) {
		h := newHarness()
		m := h.machine(scenarioDay())
		require.NoError(t, m.Begin(ctx))
		require.NoError(t, m.Abandon(ctx, true))
		assert.Empty(t, h.logs.saved)
		assert.False(t, h.snaps.has("day-a"))
		assert.Equal(t, PhasePreview, m.Session().Phase)
	})

	t.Run("delete without saving", func(t *testing.T) {
		h := newHarness()
		m := h.machine(scenarioDay())
		require.NoError(t, m.Begin(ctx))
		require.NoError(t, m.CompleteSet(ctx, set(50, 8)))
		require.NoError(t, m.Abandon(ctx, false))
		assert.Empty(t, h.logs.saved)
		assert.False(t, h.snaps.has("day-a"))
	})

	t.Run("complete and save", func(t *testing.T) {
		h := newHarness()
		m := h.machine(scenarioDay())
		require.NoError(t, m.Begin(ctx))
		require.NoError(t, m.CompleteSet(ctx, set(50, 8)))
		require.NoError(t, m.Abandon(ctx, true))
		require.Len(t, h.logs.saved, 1)
		assert.Len(t, h.logs.saved[0].Sets, 1)
		assert.Equal(t, PhaseComplete, m.Session().Phase)
	})

	t.Run("complete with nothing logged", func(t *testing.T) {
		h := newHarness()
		m := h.machine(scenarioDay())
		require.NoError(t, m.Begin(ctx))
		assert.ErrorIs(t, m.Complete(ctx), ErrNothingLogged)
	})
}

// TestPersonalRecordsOnLog verifies each exercise's best set is checked and PR
// exercise ids land on the saved log.
func TestPersonalRecordsOnLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.records.prs["a1"] = true
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))

	inputs := []SetInput{set(60, 6), set(30, 10), set(60, 8), set(32.5, 9)}
	for i, in := range inputs {
		require.NoError(t, m.CompleteSet(ctx, in))
		if i < len(inputs)-1 {
			require.NoError(t, m.FinishRest(ctx))
		}
	}

	require.Len(t, h.records.candidates, 2)
	assert.Equal(t, "a1", h.records.candidates[0].ExerciseID)
	assert.Equal(t, 60.0, h.records.candidates[0].Weight)
	assert.Equal(t, 8, h.records.candidates[0].Reps, "equal weight breaks ties on reps")
	assert.Equal(t, 32.5, h.records.candidates[1].Weight)

	require.Len(t, h.logs.saved, 1)
	assert.Equal(t, []string{"a1"}, h.logs.saved[0].PersonalRecords)
}

// TestRestRemaining verifies the countdown uses the stored end instant.
func TestRestRemaining(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.machine(scenarioDay())
	require.NoError(t, m.Begin(ctx))
	assert.Zero(t, m.RestRemaining())

	require.NoError(t, m.CompleteSet(ctx, set(50, 8)))
	assert.Equal(t, 60*time.Second, m.RestRemaining())
	h.advance(45 * time.Second)
	assert.Equal(t, 15*time.Second, m.RestRemaining())
	h.advance(time.Minute)
	assert.Zero(t, m.RestRemaining())
}

// prHistory is an in-memory progression.History holding only PR rows.
type prHistory struct{ rows []models.PersonalRecord }

func (p *prHistory) LatestCompletedLogForDay(ctx context.Context, dayID string) (*models.WorkoutLog, error) {
	return nil, nil
}

func (p *prHistory) RecentCompletedLogs(ctx context.Context, limit int) ([]models.WorkoutLog, error) {
	return nil, nil
}

func (p *prHistory) PersonalRecords(ctx context.Context, exerciseID string) ([]models.PersonalRecord, error) {
	var out []models.PersonalRecord
	for _, r := range p.rows {
		if r.ExerciseID == exerciseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *prHistory) AddPersonalRecord(ctx context.Context, pr *models.PersonalRecord) error {
	p.rows = append(p.rows, *pr)
	return nil
}

func (p *prHistory) Settings(ctx context.Context) (*models.UserSettings, error) { return nil, nil }

// TestFailedCompletionStoresNoRecord verifies a completion whose snapshot write
// fails leaves no PR row behind, and repeating the set flags the record.
func TestFailedCompletionStoresNoRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	history := &prHistory{}
	day := models.TrainingDay{
		SyncMeta: models.SyncMeta{ID: "day-a"},
		Supersets: []models.Superset{{Exercises: []models.PlannedExercise{
			{ExerciseID: "a1", Sets: 1, TargetReps: 5},
		}}},
	}
	m := New(day, Deps{
		Snapshots: h.snaps,
		Logs:      h.logs,
		Records:   progression.New(history, progression.DefaultDefaults(), slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, "kg", slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.SetClock(func() time.Time { return h.now })
	require.NoError(t, m.Begin(ctx))

	h.snaps.failErr = errors.New("disk full")
	require.Error(t, m.CompleteSet(ctx, set(100, 5)))
	assert.Equal(t, PhaseExercise, m.Session().Phase)
	assert.Empty(t, history.rows)

	h.snaps.failErr = nil
	require.NoError(t, m.CompleteSet(ctx, set(100, 5)))
	require.Len(t, h.logs.saved, 1)
	saved := h.logs.saved[0]
	assert.Equal(t, []string{"a1"}, saved.PersonalRecords)
	require.Len(t, history.rows, 1)
	assert.Equal(t, saved.ID, history.rows[0].WorkoutLogID)
}

// TestRecoveryChecksRecords verifies a recovered log whose PR check never ran is
// checked before it is saved.
func TestRecoveryChecksRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.records.prs["a1"] = true
	day := models.TrainingDay{
		SyncMeta: models.SyncMeta{ID: "day-a"},
		Supersets: []models.Superset{{Exercises: []models.PlannedExercise{
			{ExerciseID: "a1", Sets: 1, TargetReps: 5},
		}}},
	}

	done := h.now
	s := Session{
		DayID:         "day-a",
		LogID:         "log-1",
		Phase:         PhaseComplete,
		StartTime:     h.now.Add(-time.Hour),
		CompletedSets: []models.SetLog{{ExerciseID: "a1", SetNumber: 1, TargetReps: 5, ActualReps: 5, Weight: 100, Unit: "kg"}},
		PendingLog: &models.WorkoutLog{
			SyncMeta:    models.SyncMeta{ID: "log-1"},
			DayID:       "day-a",
			CompletedAt: &done,
			Sets:        []models.SetLog{{ExerciseID: "a1", SetNumber: 1, ActualReps: 5, Weight: 100}},
		},
	}
	data, err := encodeSnapshot(s, h.now)
	require.NoError(t, err)
	require.NoError(t, h.snaps.SaveSnapshot(ctx, "day-a", data))

	_, err = h.machine(day).Start(ctx)
	require.NoError(t, err)
	require.Len(t, h.logs.saved, 1)
	assert.Equal(t, []string{"a1"}, h.logs.saved[0].PersonalRecords)
	assert.Len(t, h.records.candidates, 1)
}
