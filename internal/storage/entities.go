package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
)

var _ entity.Store = (*DB)(nil)

const (
	maxWriteAttempts = 3
	retryBackoff     = 50 * time.Millisecond
)

// EnsureUser creates the user row if it does not exist. An existing row keeps
// its email unless the stored one is empty.
func (db *DB) EnsureUser(ctx context.Context, userID, email string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
			SET email = COALESCE(NULLIF(users.email, ''), EXCLUDED.email)
	`, userID, email)
	if err != nil {
		return fmt.Errorf("ensuring user %s: %w", userID, err)
	}
	return nil
}

// Upsert writes rec under policy. Overwrite never moves a row to another user;
// InsertOnly keeps the first stored row.
func (db *DB) Upsert(ctx context.Context, rec entity.Record, policy entity.WritePolicy) (bool, error) {
	query := `
		INSERT INTO entities (kind, id, user_id, body, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, id) DO UPDATE
			SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
			WHERE entities.user_id = EXCLUDED.user_id`
	if policy == entity.InsertOnly {
		query = `
		INSERT INTO entities (kind, id, user_id, body, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, id) DO NOTHING`
	}

	body := rec.Body
	if len(body) == 0 {
		body = []byte("{}")
	}

	var written bool
	err := withRetry(ctx, func() error {
		tag, err := db.Pool.Exec(ctx, query,
			string(rec.Kind), rec.ID, rec.UserID, body, floorMicro(rec.UpdatedAt))
		if err != nil {
			return err
		}
		written = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("writing %s %s: %w", rec.Kind, rec.ID, err)
	}
	return written, nil
}

// List returns the user's rows of kind ordered by updated_at. since is inclusive.
func (db *DB) List(ctx context.Context, userID string, kind entity.Kind, since *time.Time) ([]entity.Record, error) {
	query := `SELECT id, user_id, body, updated_at FROM entities WHERE user_id = $1 AND kind = $2`
	args := []any{userID, string(kind)}
	if since != nil {
		query += ` AND updated_at >= $3`
		args = append(args, floorMicro(*since))
	}
	query += ` ORDER BY updated_at, id`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer rows.Close()

	var result []entity.Record
	for rows.Next() {
		r := entity.Record{Kind: kind}
		if err := rows.Scan(&r.ID, &r.UserID, &r.Body, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}
		r.UpdatedAt = r.UpdatedAt.UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}

// Cursor returns the user's sync cursor, or nil if none was recorded.
func (db *DB) Cursor(ctx context.Context, userID string) (*models.SyncCursor, error) {
	var c models.SyncCursor
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, device_id, last_synced_at FROM sync_cursors WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &c.DeviceID, &c.LastSyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync cursor: %w", err)
	}
	c.LastSyncedAt = c.LastSyncedAt.UTC()
	return &c, nil
}

// PutCursor upserts the user's sync cursor.
func (db *DB) PutCursor(ctx context.Context, c models.SyncCursor) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO sync_cursors (user_id, device_id, last_synced_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
			SET device_id = EXCLUDED.device_id, last_synced_at = EXCLUDED.last_synced_at
	`, c.UserID, c.DeviceID, c.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("writing sync cursor: %w", err)
	}
	return nil
}

// floorMicro truncates to PostgreSQL's timestamp precision. Truncating (rather
// than letting the server round) keeps an inclusive since filter from skipping
// a row written in the same microsecond.
func floorMicro(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// withRetry reruns fn on serialization failures and deadlocks from concurrent
// pushes touching the same rows.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) {
			return err
		}
		if serr := sleepWithContext(ctx, retryBackoff*time.Duration(attempt+1)); serr != nil {
			return serr
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.SQLState() {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available
		return true
	default:
		return false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
