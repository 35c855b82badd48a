package devicestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	keyLastSyncedAt = "last_synced_at"
	keyDeviceID     = "device_id"

	// snapshotPrefix namespaces workout continuity slots by training-day id.
	snapshotPrefix = "workout_session:"
)

// GetMeta returns the value stored under key, or nil if absent.
func (s *Store) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata[%s]: %w", key, err)
	}
	return value, nil
}

// SetMeta stores value under key.
func (s *Store) SetMeta(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata[%s]: %w", key, err)
	}
	return nil
}

// DeleteMeta removes key.
func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting metadata[%s]: %w", key, err)
	}
	return nil
}

// LastSyncedAt returns the watermark of the last successful full sync.
// The zero time is returned when the device never synced (or signed out).
func (s *Store) LastSyncedAt(ctx context.Context) (time.Time, error) {
	v, err := s.GetMeta(ctx, keyLastSyncedAt)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	ns, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark %q: %w", v, err)
	}
	return time.Unix(0, ns).UTC(), nil
}

// SetLastSyncedAt stores the watermark.
func (s *Store) SetLastSyncedAt(ctx context.Context, t time.Time) error {
	return s.SetMeta(ctx, keyLastSyncedAt, []byte(strconv.FormatInt(t.UTC().UnixNano(), 10)))
}

// ClearLastSyncedAt discards the watermark so the next pull starts from the epoch.
func (s *Store) ClearLastSyncedAt(ctx context.Context) error {
	return s.DeleteMeta(ctx, keyLastSyncedAt)
}

// DeviceID returns this device's identifier, generating one on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	v, err := s.GetMeta(ctx, keyDeviceID)
	if err != nil {
		return "", err
	}
	if v != nil {
		return string(v), nil
	}
	id := uuid.NewString()
	if err := s.SetMeta(ctx, keyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// SaveSnapshot writes the continuity slot for a training day. The write is
// committed before it returns.
func (s *Store) SaveSnapshot(ctx context.Context, dayID string, data []byte) error {
	return s.SetMeta(ctx, snapshotPrefix+dayID, data)
}

// LoadSnapshot returns the continuity slot for a training day, or nil.
func (s *Store) LoadSnapshot(ctx context.Context, dayID string) ([]byte, error) {
	return s.GetMeta(ctx, snapshotPrefix+dayID)
}

// DeleteSnapshot removes the continuity slot for a training day.
func (s *Store) DeleteSnapshot(ctx context.Context, dayID string) error {
	return s.DeleteMeta(ctx, snapshotPrefix+dayID)
}
