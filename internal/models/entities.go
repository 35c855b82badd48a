package models

import "time"

// SyncMeta carries the fields shared by every synced record kind.
type SyncMeta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SyncID returns the record's primary key.
func (m *SyncMeta) SyncID() string { return m.ID }

// SyncUpdatedAt returns the record's last-modified instant.
func (m *SyncMeta) SyncUpdatedAt() time.Time { return m.UpdatedAt }

// SetSyncMeta overwrites the identifying fields with the stored values.
func (m *SyncMeta) SetSyncMeta(id, userID string, updatedAt time.Time) {
	m.ID = id
	m.UserID = userID
	m.UpdatedAt = updatedAt
}

// Syncable is implemented by every entity kind through the embedded SyncMeta.
type Syncable interface {
	SyncID() string
	SyncUpdatedAt() time.Time
	SetSyncMeta(id, userID string, updatedAt time.Time)
}

// Exercise is a movement in the user's library.
type Exercise struct {
	SyncMeta
	Name         string   `json:"name"`
	Equipment    string   `json:"equipment,omitempty"`
	MuscleGroups []string `json:"muscleGroups,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Program is an ordered set of training days.
type Program struct {
	SyncMeta
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	DayIDs      []string `json:"dayIds"`
	Active      bool     `json:"active"`
}

// TrainingDay is the plan for one workout: warm-up checklist, supersets, finisher checklist.
type TrainingDay struct {
	SyncMeta
	ProgramID string          `json:"programId"`
	Name      string          `json:"name"`
	Warmup    []ChecklistItem `json:"warmup,omitempty"`
	Supersets []Superset      `json:"supersets"`
	Finisher  []ChecklistItem `json:"finisher,omitempty"`
}

// ChecklistItem is a warm-up or finisher entry that is ticked off rather than logged.
type ChecklistItem struct {
	ExerciseID string `json:"exerciseId,omitempty"`
	Name       string `json:"name"`
	Detail     string `json:"detail,omitempty"`
}

// Superset groups exercises performed back-to-back before resting.
type Superset struct {
	Label     string            `json:"label"`
	Exercises []PlannedExercise `json:"exercises"`
}

// PlannedExercise is one exercise slot inside a superset.
type PlannedExercise struct {
	ExerciseID  string `json:"exerciseId"`
	Name        string `json:"name,omitempty"`
	Sets        int    `json:"sets"`
	TargetReps  int    `json:"targetReps"`
	RestSeconds int    `json:"restSeconds"`
}

// SetLog is one logged set.
type SetLog struct {
	ExerciseID  string    `json:"exerciseId"`
	SetNumber   int       `json:"setNumber"`
	TargetReps  int       `json:"targetReps"`
	ActualReps  int       `json:"actualReps"`
	Weight      float64   `json:"weight"`
	Unit        string    `json:"unit"`
	RPE         *float64  `json:"rpe,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// Volume returns weight×reps for the set.
func (s SetLog) Volume() float64 {
	return s.Weight * float64(s.ActualReps)
}

// WorkoutLog is a finished (or imported) workout.
type WorkoutLog struct {
	SyncMeta
	DayID           string     `json:"dayId,omitempty"`
	ProgramID       string     `json:"programId,omitempty"`
	Name            string     `json:"name,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
	TotalVolume     float64    `json:"totalVolume"`
	Sets            []SetLog   `json:"sets"`
	PersonalRecords []string   `json:"personalRecords,omitempty"`
	Source          string     `json:"source,omitempty"`
}

// Completed reports whether the log represents a finished workout.
func (l WorkoutLog) Completed() bool {
	return l.CompletedAt != nil
}

// PersonalRecord is a best known (weight, reps) pair for an exercise.
// Several rows may exist per exercise; superseded rows are kept as history.
type PersonalRecord struct {
	SyncMeta
	ExerciseID   string    `json:"exerciseId"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	Unit         string    `json:"unit"`
	WorkoutLogID string    `json:"workoutLogId,omitempty"`
	AchievedAt   time.Time `json:"achievedAt"`
}

// Beats reports whether (weight, reps) is strictly better than the record:
// higher weight wins outright, equal weight needs more reps.
func (p PersonalRecord) Beats(weight float64, reps int) bool {
	if weight > p.Weight {
		return true
	}
	return weight == p.Weight && reps > p.Reps
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	SyncMeta
	WeightUnit           string  `json:"weightUnit"`
	ProgressionIncrement float64 `json:"progressionIncrement"`
	AutoProgression      bool    `json:"autoProgression"`
	DefaultRestSeconds   int     `json:"defaultRestSeconds,omitempty"`
}

// OnboardingProfile is the answers collected on first launch.
type OnboardingProfile struct {
	SyncMeta
	Experience  string     `json:"experience,omitempty"`
	Goal        string     `json:"goal,omitempty"`
	DaysPerWeek int        `json:"daysPerWeek,omitempty"`
	Equipment   []string   `json:"equipment,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Achievement is an unlocked badge. Immutable once created.
type Achievement struct {
	SyncMeta
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// SyncCursor is the per-user watermark kept by the shared store.
type SyncCursor struct {
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
}
