package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
)

// LocalStore is what a Replica needs from the device-local store.
type LocalStore interface {
	Pending(ctx context.Context, userID string) ([]entity.Record, error)
	MarkPushed(ctx context.Context, recs []entity.Record) error
	ApplyRemote(ctx context.Context, recs []entity.Record) (int, error)
	PutCursor(ctx context.Context, c models.SyncCursor) error
	LastSyncedAt(ctx context.Context) (time.Time, error)
	SetLastSyncedAt(ctx context.Context, t time.Time) error
	ClearLastSyncedAt(ctx context.Context) error
}

// Identity names the signed-in user and this device.
type Identity struct {
	UserID   string
	DeviceID string
	Email    string
}

// Replica keeps one device store in step with a Remote.
type Replica struct {
	local  LocalStore
	remote Remote
	id     Identity
	log    *slog.Logger
}

// NewReplica creates a replica for the given identity.
func NewReplica(local LocalStore, remote Remote, id Identity, log *slog.Logger) *Replica {
	return &Replica{local: local, remote: remote, id: id, log: log}
}

// FullSync pulls changes since the cached watermark, applies them, pushes local
// changes, and stores the pull's instant as the new watermark.
func (r *Replica) FullSync(ctx context.Context) error {
	since, err := r.local.LastSyncedAt(ctx)
	if err != nil {
		return fmt.Errorf("reading watermark: %w", err)
	}

	data, syncedAt, err := r.remote.Pull(ctx, since)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	recs, err := Flatten(r.id.UserID, data)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	applied, err := r.local.ApplyRemote(ctx, recs)
	if err != nil {
		return fmt.Errorf("applying pulled records: %w", err)
	}

	pushed, err := r.PushPending(ctx)
	if err != nil {
		return err
	}

	if err := r.local.SetLastSyncedAt(ctx, syncedAt); err != nil {
		return fmt.Errorf("storing watermark: %w", err)
	}
	if err := r.local.PutCursor(ctx, models.SyncCursor{
		UserID: r.id.UserID, DeviceID: r.id.DeviceID, LastSyncedAt: syncedAt,
	}); err != nil {
		return fmt.Errorf("storing cursor: %w", err)
	}

	r.log.Info("sync complete", "pulled", len(recs), "applied", applied, "pushed", pushed, "synced_at", syncedAt)
	return nil
}

// PushPending sends every locally changed record and clears their dirty flags.
// It returns the number of records sent.
func (r *Replica) PushPending(ctx context.Context) (int, error) {
	pending, err := r.local.Pending(ctx, r.id.UserID)
	if err != nil {
		return 0, fmt.Errorf("reading pending changes: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	data, err := Assemble(pending)
	if err != nil {
		return 0, err
	}
	req := models.PushRequest{DeviceID: r.id.DeviceID, Email: r.id.Email, Data: *data}
	if _, err := r.remote.Push(ctx, req); err != nil {
		return 0, fmt.Errorf("push: %w", err)
	}
	if err := r.local.MarkPushed(ctx, pending); err != nil {
		return 0, fmt.Errorf("clearing pending flags: %w", err)
	}
	return len(pending), nil
}

// Reset discards the watermark so the next FullSync pulls from the epoch.
func (r *Replica) Reset(ctx context.Context) error {
	if err := r.local.ClearLastSyncedAt(ctx); err != nil {
		return fmt.Errorf("clearing watermark: %w", err)
	}
	return nil
}
