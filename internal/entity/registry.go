// Package entity describes how synced record kinds are stored and exchanged:
// a registry of per-kind policies, the generic Record shape both stores persist,
// and the Store contract shared by the device-local and shared copies.
package entity

// Kind names a synced record kind.
type Kind string

const (
	KindExercise          Kind = "exercise"
	KindProgram           Kind = "program"
	KindTrainingDay       Kind = "training_day"
	KindWorkoutLog        Kind = "workout_log"
	KindPersonalRecord    Kind = "personal_record"
	KindSettings          Kind = "settings"
	KindOnboardingProfile Kind = "onboarding_profile"
	KindAchievement       Kind = "achievement"
)

// WritePolicy decides what an upsert does when the id already exists.
type WritePolicy int

const (
	// Overwrite replaces the stored body and refreshes updatedAt.
	Overwrite WritePolicy = iota
	// InsertOnly keeps the first stored row (first write wins).
	InsertOnly
)

func (p WritePolicy) String() string {
	if p == InsertOnly {
		return "insert_only"
	}
	return "overwrite"
}

// FetchPolicy decides which rows a pull returns.
type FetchPolicy int

const (
	// SinceWatermark returns rows with updatedAt >= since.
	SinceWatermark FetchPolicy = iota
	// AlwaysFull returns every row regardless of since. Used for small, low-churn kinds.
	AlwaysFull
)

// Spec declares the sync policies of one kind.
type Spec struct {
	Kind  Kind
	Write WritePolicy
	Fetch FetchPolicy
}

// Registry lists every synced kind in push order.
var Registry = []Spec{
	{Kind: KindExercise, Write: Overwrite, Fetch: SinceWatermark},
	{Kind: KindProgram, Write: Overwrite, Fetch: SinceWatermark},
	{Kind: KindTrainingDay, Write: Overwrite, Fetch: SinceWatermark},
	{Kind: KindWorkoutLog, Write: Overwrite, Fetch: SinceWatermark},
	{Kind: KindPersonalRecord, Write: Overwrite, Fetch: SinceWatermark},
	{Kind: KindSettings, Write: Overwrite, Fetch: AlwaysFull},
	{Kind: KindOnboardingProfile, Write: Overwrite, Fetch: AlwaysFull},
	{Kind: KindAchievement, Write: InsertOnly, Fetch: AlwaysFull},
}

// Lookup returns the policies registered for kind.
func Lookup(kind Kind) (Spec, bool) {
	for _, s := range Registry {
		if s.Kind == kind {
			return s, true
		}
	}
	return Spec{}, false
}
