package workout

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotTTL is how long a continuity snapshot may be resumed after capture.
const SnapshotTTL = 6 * time.Hour

type snapshot struct {
	CapturedAt time.Time `json:"capturedAt"`
	Session    Session   `json:"session"`
}

func encodeSnapshot(s Session, at time.Time) ([]byte, error) {
	data, err := json.Marshal(snapshot{CapturedAt: at.UTC(), Session: s})
	if err != nil {
		return nil, fmt.Errorf("encoding session snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot parses a slot. Expiry is checked separately so recovery of a
// pending log can ignore it.
func decodeSnapshot(data []byte) (snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if snap.CapturedAt.IsZero() || snap.Session.Phase == "" {
		return snapshot{}, fmt.Errorf("%w: missing capture time or phase", ErrSnapshotCorrupt)
	}
	return snap, nil
}

func (s snapshot) expired(now time.Time) bool {
	return now.Sub(s.CapturedAt) >= SnapshotTTL
}
