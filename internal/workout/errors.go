package workout

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrChecklistIncomplete is returned when leaving warm-up or finisher with unchecked items.
	ErrChecklistIncomplete = errors.New("checklist incomplete")
	// ErrSetIndex is returned for an out-of-range checklist item or logged set.
	ErrSetIndex = errors.New("index out of range")
	// ErrInvalidSet is returned for negative weight or reps, or an RPE outside 1-10.
	ErrInvalidSet = errors.New("invalid set")
	// ErrNothingLogged is returned when completing a session without any logged set.
	ErrNothingLogged = errors.New("no sets logged")
	// ErrNothingPlanned is returned when beginning a day without any planned set.
	ErrNothingPlanned = errors.New("training day has no planned sets")
	// ErrResumePending is returned while a resume offer is waiting for Resume or Discard.
	ErrResumePending = errors.New("resume offer pending")
	// ErrCommitFailed means the finished log could not be stored. The session stays
	// complete with the log held; call RetryCommit.
	ErrCommitFailed = errors.New("workout log not saved")

	// ErrSnapshotCorrupt means the continuity slot could not be decoded.
	ErrSnapshotCorrupt = errors.New("session snapshot corrupt")
	// ErrSnapshotStale means the continuity slot is older than SnapshotTTL.
	ErrSnapshotStale = errors.New("session snapshot expired")
)
