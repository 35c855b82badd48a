package entity

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// Store is the read/write contract implemented by both the shared store and the
// device-local copy.
type Store interface {
	// EnsureUser creates the user row if it does not exist yet.
	EnsureUser(ctx context.Context, userID, email string) error
	// Upsert writes rec under policy, stamping updatedAt with rec.UpdatedAt.
	// It reports whether a row was inserted or overwritten.
	Upsert(ctx context.Context, rec Record, policy WritePolicy) (bool, error)
	// List returns the user's rows of kind. A nil since returns every row,
	// otherwise only rows with updatedAt >= *since.
	List(ctx context.Context, userID string, kind Kind, since *time.Time) ([]Record, error)
	// Cursor returns the user's sync cursor, or nil if none was recorded.
	Cursor(ctx context.Context, userID string) (*models.SyncCursor, error)
	// PutCursor upserts the user's sync cursor.
	PutCursor(ctx context.Context, c models.SyncCursor) error
}
