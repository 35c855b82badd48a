package syncengine

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// Remote is the device's view of the shared store: push and pull for one
// authenticated user. The HTTP client and Bind both implement it.
type Remote interface {
	Push(ctx context.Context, req models.PushRequest) (time.Time, error)
	Pull(ctx context.Context, since time.Time) (*models.SyncData, time.Time, error)
}

// Bound is an in-process Remote backed directly by an Engine.
type Bound struct {
	engine *Engine
	userID string
}

// Bind returns a Remote that calls engine as userID.
func Bind(engine *Engine, userID string) *Bound {
	return &Bound{engine: engine, userID: userID}
}

func (b *Bound) Push(ctx context.Context, req models.PushRequest) (time.Time, error) {
	return b.engine.Push(ctx, b.userID, req)
}

func (b *Bound) Pull(ctx context.Context, since time.Time) (*models.SyncData, time.Time, error) {
	return b.engine.Pull(ctx, b.userID, since)
}
