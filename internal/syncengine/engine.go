// Package syncengine reconciles device-local records with the shared store.
//
// Push upserts every sent entity by primary key under its kind's write policy
// and refreshes updatedAt to now. Pull returns the user's records, incremental
// for the large kinds and in full for settings, onboarding and achievements.
// There is no merge: the last push wins.
package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
	"golang.org/x/sync/errgroup"
)

// Engine performs push and pull against a shared entity store.
type Engine struct {
	store entity.Store
	now   func() time.Time
	log   *slog.Logger
}

// New creates an engine. A nil store means sync is not configured and every
// call fails with ErrNotConfigured.
func New(store entity.Store, log *slog.Logger) *Engine {
	return &Engine{store: store, now: time.Now, log: log}
}

// SetClock replaces the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Configured reports whether the engine has a store.
func (e *Engine) Configured() bool {
	return e.store != nil
}

func (e *Engine) check(userID string) error {
	if e.store == nil {
		return ErrNotConfigured
	}
	if userID == "" {
		return ErrAuthRequired
	}
	return nil
}

// Push stores the payload for userID and returns the server's notion of now.
// It is not transactional: on error, records written so far stay written.
func (e *Engine) Push(ctx context.Context, userID string, req models.PushRequest) (time.Time, error) {
	if err := e.check(userID); err != nil {
		return time.Time{}, err
	}

	recs, err := Flatten(userID, &req.Data)
	if err != nil {
		return time.Time{}, err
	}

	if err := e.store.EnsureUser(ctx, userID, req.Email); err != nil {
		return time.Time{}, fmt.Errorf("provisioning user: %w", err)
	}

	now := e.now().UTC()
	written := 0
	for _, rec := range recs {
		spec, _ := entity.Lookup(rec.Kind)
		rec.UpdatedAt = now
		ok, err := e.store.Upsert(ctx, rec, spec.Write)
		if err != nil {
			return time.Time{}, fmt.Errorf("pushing %s %s: %w", rec.Kind, rec.ID, err)
		}
		if ok {
			written++
		}
	}

	cursor := models.SyncCursor{UserID: userID, DeviceID: req.DeviceID, LastSyncedAt: now}
	if err := e.store.PutCursor(ctx, cursor); err != nil {
		return time.Time{}, fmt.Errorf("updating sync cursor: %w", err)
	}

	e.log.Debug("push applied", "user", userID, "device", req.DeviceID, "received", len(recs), "written", written)
	return now, nil
}

// Pull returns userID's records changed at or after since, plus the instant the
// pull was taken. A zero since returns every row, as do kinds with the AlwaysFull
// policy. Callers store the returned instant as their next watermark.
func (e *Engine) Pull(ctx context.Context, userID string, since time.Time) (*models.SyncData, time.Time, error) {
	if err := e.check(userID); err != nil {
		return nil, time.Time{}, err
	}

	syncedAt := e.now().UTC()
	results := make([][]entity.Record, len(entity.Registry))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range entity.Registry {
		g.Go(func() error {
			var filter *time.Time
			if spec.Fetch == entity.SinceWatermark && !since.IsZero() {
				filter = &since
			}
			recs, err := e.store.List(gctx, userID, spec.Kind, filter)
			if err != nil {
				return fmt.Errorf("pulling %s: %w", spec.Kind, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, time.Time{}, err
	}

	var all []entity.Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	data, err := Assemble(all)
	if err != nil {
		return nil, time.Time{}, err
	}

	e.log.Debug("pull served", "user", userID, "since", since, "records", len(all))
	return data, syncedAt, nil
}
