// Package achievements unlocks badges from a user's workout history.
// Unlocks are immutable: an achievement already stored is never rewritten.
package achievements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// namespace seeds deterministic achievement ids, so two devices unlocking the
// same code for the same user produce the same row.
var namespace = uuid.MustParse("6f1c2d0e-8a4b-5c3d-9e7f-1a2b3c4d5e6f")

// Stats summarises the history the rules look at.
type Stats struct {
	Workouts         int
	PersonalRecords  int
	MaxSessionVolume float64
}

// Rule is one unlockable achievement.
type Rule struct {
	Code  string
	Title string
	Met   func(Stats) bool
}

// Rules lists every achievement in display order.
var Rules = []Rule{
	{Code: "first_workout", Title: "First workout", Met: func(s Stats) bool { return s.Workouts >= 1 }},
	{Code: "workouts_10", Title: "10 workouts", Met: func(s Stats) bool { return s.Workouts >= 10 }},
	{Code: "workouts_50", Title: "50 workouts", Met: func(s Stats) bool { return s.Workouts >= 50 }},
	{Code: "first_pr", Title: "First personal record", Met: func(s Stats) bool { return s.PersonalRecords >= 1 }},
	{Code: "prs_10", Title: "10 personal records", Met: func(s Stats) bool { return s.PersonalRecords >= 10 }},
	{Code: "session_volume_10000", Title: "10,000 in one session", Met: func(s Stats) bool { return s.MaxSessionVolume >= 10000 }},
}

// History is the device data the evaluator reads and writes.
type History interface {
	RecentCompletedLogs(ctx context.Context, limit int) ([]models.WorkoutLog, error)
	PersonalRecords(ctx context.Context, exerciseID string) ([]models.PersonalRecord, error)
	Achievements(ctx context.Context) ([]models.Achievement, error)
	SaveAchievement(ctx context.Context, a *models.Achievement) error
}

// Evaluator unlocks achievements for one user.
type Evaluator struct {
	history History
	userID  string
	now     func() time.Time
	log     *slog.Logger
}

// New creates an evaluator.
func New(history History, userID string, log *slog.Logger) *Evaluator {
	return &Evaluator{history: history, userID: userID, now: time.Now, log: log}
}

// ID returns the deterministic id of an achievement code for a user.
func ID(userID, code string) string {
	return uuid.NewSHA1(namespace, []byte(userID+"/"+code)).String()
}

// Evaluate stores every newly earned achievement and returns them.
func (e *Evaluator) Evaluate(ctx context.Context) ([]models.Achievement, error) {
	stats, err := e.stats(ctx)
	if err != nil {
		return nil, err
	}

	have, err := e.history.Achievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading achievements: %w", err)
	}
	unlocked := make(map[string]bool, len(have))
	for _, a := range have {
		unlocked[a.Code] = true
	}

	var earned []models.Achievement
	for _, r := range Rules {
		if unlocked[r.Code] || !r.Met(stats) {
			continue
		}
		a := models.Achievement{
			SyncMeta:   models.SyncMeta{ID: ID(e.userID, r.Code)},
			Code:       r.Code,
			Title:      r.Title,
			UnlockedAt: e.now().UTC(),
		}
		if err := e.history.SaveAchievement(ctx, &a); err != nil {
			return earned, fmt.Errorf("saving achievement %s: %w", r.Code, err)
		}
		e.log.Debug("achievement earned", "code", r.Code)
		earned = append(earned, a)
	}
	return earned, nil
}

func (e *Evaluator) stats(ctx context.Context) (Stats, error) {
	logs, err := e.history.RecentCompletedLogs(ctx, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("reading workout logs: %w", err)
	}
	prs, err := e.history.PersonalRecords(ctx, "")
	if err != nil {
		return Stats{}, fmt.Errorf("reading personal records: %w", err)
	}
	s := Stats{Workouts: len(logs), PersonalRecords: len(prs)}
	for _, l := range logs {
		s.MaxSessionVolume = max(s.MaxSessionVolume, l.TotalVolume)
	}
	return s, nil
}
