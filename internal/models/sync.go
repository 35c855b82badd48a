package models

import "time"

// SyncData groups entities per kind. It is the push payload's "data" object and
// the pull response's "data" object.
type SyncData struct {
	Exercises         []Exercise         `json:"exercises"`
	Programs          []Program          `json:"programs"`
	TrainingDays      []TrainingDay      `json:"trainingDays"`
	WorkoutLogs       []WorkoutLog       `json:"workoutLogs"`
	PersonalRecords   []PersonalRecord   `json:"personalRecords"`
	Settings          *UserSettings      `json:"settings"`
	OnboardingProfile *OnboardingProfile `json:"onboardingProfile"`
	Achievements      []Achievement      `json:"achievements"`
}

// Count returns the number of entities in the payload.
func (d *SyncData) Count() int {
	n := len(d.Exercises) + len(d.Programs) + len(d.TrainingDays) + len(d.WorkoutLogs) +
		len(d.PersonalRecords) + len(d.Achievements)
	if d.Settings != nil {
		n++
	}
	if d.OnboardingProfile != nil {
		n++
	}
	return n
}

// EnsureSlices replaces nil slices with empty ones so they encode as [].
func (d *SyncData) EnsureSlices() {
	if d.Exercises == nil {
		d.Exercises = []Exercise{}
	}
	if d.Programs == nil {
		d.Programs = []Program{}
	}
	if d.TrainingDays == nil {
		d.TrainingDays = []TrainingDay{}
	}
	if d.WorkoutLogs == nil {
		d.WorkoutLogs = []WorkoutLog{}
	}
	if d.PersonalRecords == nil {
		d.PersonalRecords = []PersonalRecord{}
	}
	if d.Achievements == nil {
		d.Achievements = []Achievement{}
	}
}

// PushRequest is the body of POST /api/v1/sync/push.
type PushRequest struct {
	DeviceID string   `json:"deviceId"`
	Email    string   `json:"email,omitempty"`
	Data     SyncData `json:"data"`
}

// PushResponse is returned by a successful push.
type PushResponse struct {
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"syncedAt"`
}

// PullResponse is returned by a successful pull.
type PullResponse struct {
	Success  bool      `json:"success"`
	Data     SyncData  `json:"data"`
	SyncedAt time.Time `json:"syncedAt"`
}

// ErrorResponse is returned by push and pull on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
	Email    string `json:"email,omitempty"`
}

// TokenResponse carries an issued device token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
