package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// Source tags imported workout logs.
const Source = "alpha"

// namespace derives stable log ids so a re-import overwrites instead of duplicating.
var namespace = uuid.MustParse("3c1f5a52-7d0e-4b8b-9a55-2f3f3b9e61a4")

// Store is the device history the importer writes through.
type Store interface {
	ExerciseByName(ctx context.Context, name string) (*models.Exercise, error)
	SaveExercise(ctx context.Context, e *models.Exercise) error
	SaveWorkoutLog(ctx context.Context, l *models.WorkoutLog) error
}

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	WorkoutsImported int `json:"workouts_imported"`
	WorkoutsSkipped  int `json:"workouts_skipped"`
	ExercisesCreated int `json:"exercises_created"`
	SetsImported     int `json:"sets_imported"`
	WarmupsSkipped   int `json:"warmups_skipped"`
}

// Importer turns parsed sessions into completed workout logs for one user.
type Importer struct {
	store     Store
	userID    string
	log       *slog.Logger
	exercises map[string]string
}

// New creates an importer writing userID's history to store.
func New(store Store, userID string, log *slog.Logger) *Importer {
	return &Importer{store: store, userID: userID, log: log, exercises: map[string]string{}}
}

// Import parses a CSV export and saves one completed log per session with at
// least one working set. Warm-up sets are dropped.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &Result{SessionsReceived: len(sessions)}
	for _, s := range sessions {
		wl, err := im.convert(ctx, s, result)
		if err != nil {
			return result, err
		}
		if len(wl.Sets) == 0 {
			result.WorkoutsSkipped++
			continue
		}
		if err := im.store.SaveWorkoutLog(ctx, wl); err != nil {
			return result, fmt.Errorf("saving session %s: %w", s.StartedAt.Format("2006-01-02"), err)
		}
		result.WorkoutsImported++
		result.SetsImported += len(wl.Sets)
	}

	im.log.Info("alpha import finished",
		"sessions", result.SessionsReceived,
		"imported", result.WorkoutsImported,
		"exercises_created", result.ExercisesCreated,
		"sets", result.SetsImported,
	)
	return result, nil
}

func (im *Importer) convert(ctx context.Context, s Session, result *Result) (*models.WorkoutLog, error) {
	started := s.StartedAt.UTC()
	completed := started.Add(s.Duration)

	wl := &models.WorkoutLog{
		SyncMeta:        models.SyncMeta{ID: logID(im.userID, s)},
		Name:            s.Name,
		StartedAt:       started,
		CompletedAt:     &completed,
		DurationSeconds: int(s.Duration.Seconds()),
		Source:          Source,
		Sets:            []models.SetLog{},
	}

	for _, ex := range s.Exercises {
		result.WarmupsSkipped += len(ex.WarmUps)
		if len(ex.Working) == 0 {
			continue
		}

		exerciseID, err := im.exerciseID(ctx, ex, result)
		if err != nil {
			return nil, err
		}
		for _, set := range ex.Working {
			sl := models.SetLog{
				ExerciseID:  exerciseID,
				SetNumber:   set.Number,
				TargetReps:  ex.TargetReps,
				ActualReps:  set.Reps,
				Weight:      set.Load,
				Unit:        "kg",
				RPE:         rpeFromRIR(set.RIR),
				CompletedAt: completed,
			}
			wl.Sets = append(wl.Sets, sl)
			wl.TotalVolume += sl.Volume()
		}
	}
	return wl, nil
}

// exerciseID finds the exercise by name or creates it.
func (im *Importer) exerciseID(ctx context.Context, ex Exercise, result *Result) (string, error) {
	key := strings.ToLower(ex.Name)
	if id, ok := im.exercises[key]; ok {
		return id, nil
	}

	existing, err := im.store.ExerciseByName(ctx, ex.Name)
	if err != nil {
		return "", fmt.Errorf("looking up exercise %q: %w", ex.Name, err)
	}
	if existing != nil {
		im.exercises[key] = existing.ID
		return existing.ID, nil
	}

	created := &models.Exercise{
		SyncMeta:  models.SyncMeta{ID: uuid.NewString()},
		Name:      ex.Name,
		Equipment: ex.Equipment,
	}
	if err := im.store.SaveExercise(ctx, created); err != nil {
		return "", fmt.Errorf("creating exercise %q: %w", ex.Name, err)
	}
	result.ExercisesCreated++
	im.exercises[key] = created.ID
	return created.ID, nil
}

func logID(userID string, s Session) string {
	key := userID + "/" + s.StartedAt.UTC().Format("2006-01-02T15:04") + "/" + s.Name
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// rpeFromRIR maps reps in reserve to RPE = 10 - RIR, clamped to 1..10.
func rpeFromRIR(rir float64) *float64 {
	rpe := 10 - rir
	if rpe < 1 {
		rpe = 1
	}
	if rpe > 10 {
		rpe = 10
	}
	return &rpe
}
