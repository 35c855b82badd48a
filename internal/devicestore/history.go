package devicestore

import (
	"context"
	"sort"
	"strings"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
)

// History is a typed view of one user's records in the device store. Writes go
// through Save, so every change is queued for the next push.
type History struct {
	store  *Store
	userID string
}

// For returns the typed view of userID's records.
func (s *Store) For(userID string) *History {
	return &History{store: s, userID: userID}
}

// UserID returns the user the view is bound to.
func (h *History) UserID() string { return h.userID }

func list[T any, PT interface {
	*T
	models.Syncable
}](ctx context.Context, h *History, kind entity.Kind) ([]T, error) {
	recs, err := h.store.List(ctx, h.userID, kind, nil)
	if err != nil {
		return nil, err
	}
	return entity.DecodeAll[T, PT](recs)
}

func (h *History) save(ctx context.Context, kind entity.Kind, v models.Syncable) error {
	rec, err := entity.Encode(kind, h.userID, v, h.store.now())
	if err != nil {
		return err
	}
	return h.store.Save(ctx, rec)
}

// TrainingDay returns a training day by id, or nil.
func (h *History) TrainingDay(ctx context.Context, dayID string) (*models.TrainingDay, error) {
	rec, err := h.store.Get(ctx, entity.KindTrainingDay, dayID)
	if err != nil || rec == nil || rec.UserID != h.userID {
		return nil, err
	}
	day, err := entity.Decode[models.TrainingDay](*rec)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// TrainingDays returns all of the user's training days.
func (h *History) TrainingDays(ctx context.Context) ([]models.TrainingDay, error) {
	return list[models.TrainingDay](ctx, h, entity.KindTrainingDay)
}

// SaveTrainingDay stores a training day.
func (h *History) SaveTrainingDay(ctx context.Context, day *models.TrainingDay) error {
	return h.save(ctx, entity.KindTrainingDay, day)
}

// SaveProgram stores a program.
func (h *History) SaveProgram(ctx context.Context, p *models.Program) error {
	return h.save(ctx, entity.KindProgram, p)
}

// Exercises returns the user's exercise library.
func (h *History) Exercises(ctx context.Context) ([]models.Exercise, error) {
	return list[models.Exercise](ctx, h, entity.KindExercise)
}

// ExerciseByName finds an exercise by case-insensitive name, or nil.
func (h *History) ExerciseByName(ctx context.Context, name string) (*models.Exercise, error) {
	all, err := h.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Name, name) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// SaveExercise stores an exercise.
func (h *History) SaveExercise(ctx context.Context, e *models.Exercise) error {
	return h.save(ctx, entity.KindExercise, e)
}

// WorkoutLogs returns every workout log, completed or not.
func (h *History) WorkoutLogs(ctx context.Context) ([]models.WorkoutLog, error) {
	return list[models.WorkoutLog](ctx, h, entity.KindWorkoutLog)
}

// SaveWorkoutLog stores a workout log.
func (h *History) SaveWorkoutLog(ctx context.Context, l *models.WorkoutLog) error {
	return h.save(ctx, entity.KindWorkoutLog, l)
}

// RecentCompletedLogs returns up to limit completed logs, most recent first.
// A limit <= 0 returns all of them.
func (h *History) RecentCompletedLogs(ctx context.Context, limit int) ([]models.WorkoutLog, error) {
	all, err := h.WorkoutLogs(ctx)
	if err != nil {
		return nil, err
	}
	completed := all[:0]
	for _, l := range all {
		if l.Completed() {
			completed = append(completed, l)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})
	if limit > 0 && len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, nil
}

// LatestCompletedLogForDay returns the most recent completed log of a training day, or nil.
func (h *History) LatestCompletedLogForDay(ctx context.Context, dayID string) (*models.WorkoutLog, error) {
	logs, err := h.RecentCompletedLogs(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].DayID == dayID {
			return &logs[i], nil
		}
	}
	return nil, nil
}

// PersonalRecords returns every PR row of an exercise; an empty exerciseID returns all rows.
func (h *History) PersonalRecords(ctx context.Context, exerciseID string) ([]models.PersonalRecord, error) {
	all, err := list[models.PersonalRecord](ctx, h, entity.KindPersonalRecord)
	if err != nil {
		return nil, err
	}
	if exerciseID == "" {
		return all, nil
	}
	var out []models.PersonalRecord
	for _, pr := range all {
		if pr.ExerciseID == exerciseID {
			out = append(out, pr)
		}
	}
	return out, nil
}

// AddPersonalRecord appends a PR row.
func (h *History) AddPersonalRecord(ctx context.Context, pr *models.PersonalRecord) error {
	return h.save(ctx, entity.KindPersonalRecord, pr)
}

// Settings returns the most recently updated settings row, or nil.
func (h *History) Settings(ctx context.Context) (*models.UserSettings, error) {
	recs, err := h.store.List(ctx, h.userID, entity.KindSettings, nil)
	if err != nil {
		return nil, err
	}
	rec, ok := entity.Latest(recs)
	if !ok {
		return nil, nil
	}
	s, err := entity.Decode[models.UserSettings](rec)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings stores the user's settings.
func (h *History) SaveSettings(ctx context.Context, s *models.UserSettings) error {
	return h.save(ctx, entity.KindSettings, s)
}

// Achievements returns every unlocked achievement.
func (h *History) Achievements(ctx context.Context) ([]models.Achievement, error) {
	return list[models.Achievement](ctx, h, entity.KindAchievement)
}

// SaveAchievement stores an achievement. An existing row with the same id is kept.
func (h *History) SaveAchievement(ctx context.Context, a *models.Achievement) error {
	return h.save(ctx, entity.KindAchievement, a)
}
