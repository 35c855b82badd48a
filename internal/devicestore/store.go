// Package devicestore is the device-local copy of the entity store, kept in SQLite.
//
// Besides the shared read/write contract it tracks which records changed locally
// (dirty) so the scheduler can push them, and holds small device state: the
// last-synced watermark, the device id, and workout continuity snapshots.
package devicestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the SQLite-backed device store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ entity.Store = (*Store)(nil)

// Open opens (or creates) the store at dir/ironlog.db and applies migrations.
// Pass ":memory:" as dir for a throwaway in-memory store.
func Open(ctx context.Context, dir string) (*Store, error) {
	dsn := ":memory:"
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
		}
		dsn = filepath.Join(dir, "ironlog.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening device db: %w", err)
	}
	// SQLite allows one writer; an in-memory db also only exists on its own connection.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("running device migrations: %w", err)
	}
	return nil
}

// SetClock replaces the store's time source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureUser creates the user row if it does not exist.
func (s *Store) EnsureUser(ctx context.Context, userID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		userID, email)
	if err != nil {
		return fmt.Errorf("ensuring user %s: %w", userID, err)
	}
	return nil
}

// Upsert writes rec without marking it as a local change.
func (s *Store) Upsert(ctx context.Context, rec entity.Record, policy entity.WritePolicy) (bool, error) {
	return s.write(ctx, rec, policy, false)
}

// Save records a local change: updatedAt is set to now and the row is marked dirty
// so the next push sends it. The kind's write policy still applies.
func (s *Store) Save(ctx context.Context, rec entity.Record) error {
	spec, ok := entity.Lookup(rec.Kind)
	if !ok {
		return fmt.Errorf("saving %s %s: unknown kind", rec.Kind, rec.ID)
	}
	rec.UpdatedAt = s.now().UTC()
	if _, err := s.write(ctx, rec, spec.Write, true); err != nil {
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, rec entity.Record, policy entity.WritePolicy, dirty bool) (bool, error) {
	query := `INSERT INTO entities (kind, id, user_id, body, created_at, updated_at, dirty)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			body = excluded.body, updated_at = excluded.updated_at, dirty = excluded.dirty
		WHERE entities.user_id = excluded.user_id`
	if policy == entity.InsertOnly {
		query = `INSERT INTO entities (kind, id, user_id, body, created_at, updated_at, dirty)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO NOTHING`
	}
	res, err := s.db.ExecContext(ctx, query,
		string(rec.Kind), rec.ID, rec.UserID, string(rec.Body),
		s.now().UTC().UnixNano(), rec.UpdatedAt.UTC().UnixNano(), boolInt(dirty))
	if err != nil {
		return false, fmt.Errorf("writing %s %s: %w", rec.Kind, rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("writing %s %s: %w", rec.Kind, rec.ID, err)
	}
	return n > 0, nil
}

// List returns the user's rows of kind, optionally only those updated at or after since.
func (s *Store) List(ctx context.Context, userID string, kind entity.Kind, since *time.Time) ([]entity.Record, error) {
	query := `SELECT kind, id, user_id, body, updated_at FROM entities WHERE user_id = ? AND kind = ?`
	args := []any{userID, string(kind)}
	if since != nil {
		query += ` AND updated_at >= ?`
		args = append(args, since.UTC().UnixNano())
	}
	query += ` ORDER BY updated_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Get returns one record, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, kind entity.Kind, id string) (*entity.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, user_id, body, updated_at FROM entities WHERE kind = ? AND id = ?`,
		string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", kind, id, err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Pending returns every locally changed record of the user that has not been pushed.
func (s *Store) Pending(ctx context.Context, userID string) ([]entity.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, user_id, body, updated_at FROM entities
		 WHERE user_id = ? AND dirty = 1 ORDER BY updated_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing pending changes: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// MarkPushed clears the dirty flag of the given records. A record saved again
// after it was read for the push keeps its flag.
func (s *Store) MarkPushed(ctx context.Context, recs []entity.Record) error {
	for _, r := range recs {
		_, err := s.db.ExecContext(ctx,
			`UPDATE entities SET dirty = 0 WHERE kind = ? AND id = ? AND updated_at = ?`,
			string(r.Kind), r.ID, r.UpdatedAt.UTC().UnixNano())
		if err != nil {
			return fmt.Errorf("marking %s %s pushed: %w", r.Kind, r.ID, err)
		}
	}
	return nil
}

// ApplyRemote stores pulled records under each kind's write policy. Rows with
// unpushed local changes are left alone; the next push overwrites the shared copy.
// It returns the number of rows written.
func (s *Store) ApplyRemote(ctx context.Context, recs []entity.Record) (int, error) {
	applied := 0
	for _, r := range recs {
		spec, ok := entity.Lookup(r.Kind)
		if !ok {
			return applied, fmt.Errorf("applying %s %s: unknown kind", r.Kind, r.ID)
		}
		query := `INSERT INTO entities (kind, id, user_id, body, created_at, updated_at, dirty)
			VALUES (?, ?, ?, ?, ?, ?, 0)
			ON CONFLICT(kind, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
			WHERE entities.dirty = 0 AND entities.user_id = excluded.user_id`
		if spec.Write == entity.InsertOnly {
			query = `INSERT INTO entities (kind, id, user_id, body, created_at, updated_at, dirty)
			VALUES (?, ?, ?, ?, ?, ?, 0)
			ON CONFLICT(kind, id) DO NOTHING`
		}
		res, err := s.db.ExecContext(ctx, query,
			string(r.Kind), r.ID, r.UserID, string(r.Body),
			s.now().UTC().UnixNano(), r.UpdatedAt.UTC().UnixNano())
		if err != nil {
			return applied, fmt.Errorf("applying %s %s: %w", r.Kind, r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			applied++
		}
	}
	return applied, nil
}

// Cursor returns the cached sync cursor for the user.
func (s *Store) Cursor(ctx context.Context, userID string) (*models.SyncCursor, error) {
	var c models.SyncCursor
	var ns int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, device_id, last_synced_at FROM sync_cursors WHERE user_id = ?`, userID,
	).Scan(&c.UserID, &c.DeviceID, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync cursor: %w", err)
	}
	c.LastSyncedAt = time.Unix(0, ns).UTC()
	return &c, nil
}

// PutCursor upserts the user's sync cursor.
func (s *Store) PutCursor(ctx context.Context, c models.SyncCursor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_cursors (user_id, device_id, last_synced_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET device_id = excluded.device_id, last_synced_at = excluded.last_synced_at`,
		c.UserID, c.DeviceID, c.LastSyncedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("writing sync cursor: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]entity.Record, error) {
	var result []entity.Record
	for rows.Next() {
		var r entity.Record
		var kind, body string
		var ns int64
		if err := rows.Scan(&kind, &r.ID, &r.UserID, &body, &ns); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		r.Kind = entity.Kind(kind)
		r.Body = []byte(body)
		r.UpdatedAt = time.Unix(0, ns).UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
