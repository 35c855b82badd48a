package workout

import (
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// Phase is the stage of a workout.
type Phase string

const (
	PhasePreview  Phase = "preview"
	PhaseWarmup   Phase = "warmup"
	PhaseExercise Phase = "exercise"
	PhaseRest     Phase = "rest"
	PhaseFinisher Phase = "finisher"
	PhaseComplete Phase = "complete"
)

// Session is the in-progress state of one workout. It is what the continuity
// slot stores, so every field round-trips through JSON.
type Session struct {
	DayID           string             `json:"dayId"`
	LogID           string             `json:"logId"`
	Phase           Phase              `json:"phase"`
	Position        models.Position    `json:"position"`
	CompletedSets   []models.SetLog    `json:"completedSets"`
	StartTime       time.Time          `json:"startTime"`
	WarmupChecked   []bool             `json:"warmupChecked"`
	FinisherChecked []bool             `json:"finisherChecked"`
	CurrentVolume   float64            `json:"currentVolume"`
	RestEndsAt      *time.Time         `json:"restEndsAt,omitempty"`
	PendingLog      *models.WorkoutLog `json:"pendingLog,omitempty"`
	// RecordsChecked is set once PR detection has run for PendingLog.
	RecordsChecked bool `json:"recordsChecked,omitempty"`
}

func (s Session) clone() Session {
	c := s
	c.CompletedSets = append([]models.SetLog(nil), s.CompletedSets...)
	c.WarmupChecked = append([]bool(nil), s.WarmupChecked...)
	c.FinisherChecked = append([]bool(nil), s.FinisherChecked...)
	if s.RestEndsAt != nil {
		t := *s.RestEndsAt
		c.RestEndsAt = &t
	}
	if s.PendingLog != nil {
		l := *s.PendingLog
		l.Sets = append([]models.SetLog(nil), s.PendingLog.Sets...)
		l.PersonalRecords = append([]string(nil), s.PendingLog.PersonalRecords...)
		c.PendingLog = &l
	}
	return c
}

// resumable reports whether a restored session may be offered to the user.
func (s Session) resumable() bool {
	return s.Phase != PhasePreview && s.Phase != PhaseComplete
}

func allChecked(items []bool) bool {
	for _, c := range items {
		if !c {
			return false
		}
	}
	return true
}
