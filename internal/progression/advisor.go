// Package progression recommends working weights from past workouts and detects
// personal records.
package progression

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

const (
	// GlobalWindow bounds how many recent completed logs GlobalSuggestion scans.
	GlobalWindow = 20

	// maxEffortRPE is the lower bound of the maximal-effort band. A last set at or
	// above it blocks the weight nudge.
	maxEffortRPE = 9.0
)

// History is the read access the advisor needs, plus appending PR rows.
type History interface {
	LatestCompletedLogForDay(ctx context.Context, dayID string) (*models.WorkoutLog, error)
	RecentCompletedLogs(ctx context.Context, limit int) ([]models.WorkoutLog, error)
	PersonalRecords(ctx context.Context, exerciseID string) ([]models.PersonalRecord, error)
	AddPersonalRecord(ctx context.Context, pr *models.PersonalRecord) error
	Settings(ctx context.Context) (*models.UserSettings, error)
}

// Defaults apply when the user has no settings row.
type Defaults struct {
	Increment       float64
	AutoProgression bool
	Unit            string
}

// DefaultDefaults returns the fallback progression settings.
func DefaultDefaults() Defaults {
	return Defaults{Increment: 2.5, AutoProgression: true, Unit: "kg"}
}

// Advisor answers progression questions for one user.
type Advisor struct {
	history  History
	defaults Defaults
	now      func() time.Time
	log      *slog.Logger
}

// New creates an advisor.
func New(history History, defaults Defaults, log *slog.Logger) *Advisor {
	return &Advisor{history: history, defaults: defaults, now: time.Now, log: log}
}

// preferences resolves the user's settings over the defaults.
func (a *Advisor) preferences(ctx context.Context) (Defaults, error) {
	p := a.defaults
	s, err := a.history.Settings(ctx)
	if err != nil {
		return p, fmt.Errorf("reading settings: %w", err)
	}
	if s == nil {
		return p, nil
	}
	if s.ProgressionIncrement > 0 {
		p.Increment = s.ProgressionIncrement
	}
	if s.WeightUnit != "" {
		p.Unit = s.WeightUnit
	}
	p.AutoProgression = s.AutoProgression
	return p, nil
}

// DaySuggestion is the recommendation for one set of a training day.
type DaySuggestion struct {
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	Unit       string  `json:"unit"`
	Progressed bool    `json:"progressed"`
	LastWeight float64 `json:"lastWeight"`
	LastReps   int     `json:"lastReps"`
}

// DaySuggestion looks at the most recent completed log of dayID and the set
// logged there for (exerciseID, setNumber). If that set met its target the
// weight goes up by the progression increment, otherwise it stays. It returns
// nil when there is no such set.
func (a *Advisor) DaySuggestion(ctx context.Context, exerciseID, dayID string, setNumber int) (*DaySuggestion, error) {
	last, err := a.history.LatestCompletedLogForDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("reading last %s log: %w", dayID, err)
	}
	if last == nil {
		return nil, nil
	}

	var match *models.SetLog
	for i := range last.Sets {
		if last.Sets[i].ExerciseID == exerciseID && last.Sets[i].SetNumber == setNumber {
			match = &last.Sets[i]
			break
		}
	}
	if match == nil {
		return nil, nil
	}

	prefs, err := a.preferences(ctx)
	if err != nil {
		return nil, err
	}

	s := &DaySuggestion{
		Weight:     match.Weight,
		Reps:       match.TargetReps,
		Unit:       match.Unit,
		LastWeight: match.Weight,
		LastReps:   match.ActualReps,
	}
	if s.Unit == "" {
		s.Unit = prefs.Unit
	}
	if match.ActualReps >= match.TargetReps {
		s.Weight = match.Weight + prefs.Increment
		s.Progressed = true
	}
	return s, nil
}

// GlobalSuggestion summarises an exercise's most recent appearance in any workout.
type GlobalSuggestion struct {
	BestWeight    float64   `json:"bestWeight"`
	BestReps      int       `json:"bestReps"`
	TargetReps    int       `json:"targetReps"`
	HitTarget     bool      `json:"hitTarget"`
	LastRPE       *float64  `json:"lastRpe,omitempty"`
	NudgeEligible bool      `json:"nudgeEligible"`
	NudgeWeight   *float64  `json:"nudgeWeight"`
	Unit          string    `json:"unit"`
	WorkoutLogID  string    `json:"workoutLogId"`
	PerformedAt   time.Time `json:"performedAt"`
}

// GlobalSuggestion scans recent completed logs, newest first, for the first one
// containing exerciseID. The best set there is the heaviest; the last set is the
// one completed last. A nudge is offered when the best set hit its target,
// auto-progression is on, and the last set's RPE is below 9. It returns nil if
// the exercise does not appear in the window.
func (a *Advisor) GlobalSuggestion(ctx context.Context, exerciseID string) (*GlobalSuggestion, error) {
	logs, err := a.history.RecentCompletedLogs(ctx, GlobalWindow)
	if err != nil {
		return nil, fmt.Errorf("reading recent logs: %w", err)
	}

	for _, l := range logs {
		var sets []models.SetLog
		for _, s := range l.Sets {
			if s.ExerciseID == exerciseID {
				sets = append(sets, s)
			}
		}
		if len(sets) == 0 {
			continue
		}

		prefs, err := a.preferences(ctx)
		if err != nil {
			return nil, err
		}

		best := sets[0]
		for _, s := range sets[1:] {
			if s.Weight > best.Weight {
				best = s
			}
		}
		sort.SliceStable(sets, func(i, j int) bool { return sets[i].CompletedAt.Before(sets[j].CompletedAt) })
		lastSet := sets[len(sets)-1]

		g := &GlobalSuggestion{
			BestWeight:   best.Weight,
			BestReps:     best.ActualReps,
			TargetReps:   best.TargetReps,
			HitTarget:    best.ActualReps >= best.TargetReps,
			LastRPE:      lastSet.RPE,
			Unit:         best.Unit,
			WorkoutLogID: l.ID,
			PerformedAt:  *l.CompletedAt,
		}
		if g.Unit == "" {
			g.Unit = prefs.Unit
		}
		belowMax := lastSet.RPE == nil || *lastSet.RPE < maxEffortRPE
		g.NudgeEligible = g.HitTarget && prefs.AutoProgression && belowMax
		if g.NudgeEligible {
			w := best.Weight + prefs.Increment
			g.NudgeWeight = &w
		}
		return g, nil
	}
	return nil, nil
}

// Candidate is a set offered for PR detection.
type Candidate struct {
	ExerciseID   string
	Weight       float64
	Reps         int
	Unit         string
	WorkoutLogID string
	AchievedAt   time.Time
}

// IsPersonalRecord reports whether c beats every stored PR row of the exercise.
// A PR is appended as a new row; earlier rows are kept. A workout log sets at
// most one row per exercise: asking again for the same log reports true
// without storing another.
func (a *Advisor) IsPersonalRecord(ctx context.Context, c Candidate) (bool, error) {
	if c.Reps <= 0 {
		return false, nil
	}
	rows, err := a.history.PersonalRecords(ctx, c.ExerciseID)
	if err != nil {
		return false, fmt.Errorf("reading PRs for %s: %w", c.ExerciseID, err)
	}
	if c.WorkoutLogID != "" {
		for _, r := range rows {
			if r.WorkoutLogID == c.WorkoutLogID {
				return true, nil
			}
		}
	}
	for _, r := range rows {
		if !r.Beats(c.Weight, c.Reps) {
			return false, nil
		}
	}

	at := c.AchievedAt
	if at.IsZero() {
		at = a.now()
	}
	pr := &models.PersonalRecord{
		SyncMeta:     models.SyncMeta{ID: recordID(c)},
		ExerciseID:   c.ExerciseID,
		Weight:       c.Weight,
		Reps:         c.Reps,
		Unit:         c.Unit,
		WorkoutLogID: c.WorkoutLogID,
		AchievedAt:   at,
	}
	if err := a.history.AddPersonalRecord(ctx, pr); err != nil {
		return false, fmt.Errorf("storing PR for %s: %w", c.ExerciseID, err)
	}
	a.log.Info("personal record", "exercise", c.ExerciseID, "weight", c.Weight, "reps", c.Reps)
	return true, nil
}

// recordID derives a PR row id from its workout log and exercise, so devices
// recording the same log converge on one row.
func recordID(c Candidate) string {
	if c.WorkoutLogID == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.WorkoutLogID+"/"+c.ExerciseID)).String()
}
