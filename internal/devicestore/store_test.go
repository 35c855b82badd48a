package devicestore

import (
	"context"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens an in-memory store whose clock starts at a fixed instant and
// advances one second per call.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	return s
}

func exerciseRecord(t *testing.T, id, userID, name string, at time.Time) entity.Record {
	t.Helper()
	rec, err := entity.Encode(entity.KindExercise, userID, &models.Exercise{
		SyncMeta: models.SyncMeta{ID: id},
		Name:     name,
	}, at)
	require.NoError(t, err)
	return rec
}

// TestSaveMarksPending verifies local saves are queued for push and cleared by MarkPushed.
func TestSaveMarksPending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, exerciseRecord(t, "ex-1", "u1", "Squat", time.Time{})))
	require.NoError(t, s.Save(ctx, exerciseRecord(t, "ex-2", "u1", "Bench", time.Time{})))

	pending, err := s.Pending(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.False(t, pending[0].UpdatedAt.IsZero(), "Save must stamp updatedAt")

	require.NoError(t, s.MarkPushed(ctx, pending))
	pending, err = s.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestMarkPushedKeepsNewerEdit verifies a record saved again during a push stays pending.
func TestMarkPushedKeepsNewerEdit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, exerciseRecord(t, "ex-1", "u1", "Squat", time.Time{})))
	pending, err := s.Pending(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, exerciseRecord(t, "ex-1", "u1", "Back Squat", time.Time{})))
	require.NoError(t, s.MarkPushed(ctx, pending))

	pending, err = s.Pending(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	ex, err := entity.Decode[models.Exercise](pending[0])
	require.NoError(t, err)
	assert.Equal(t, "Back Squat", ex.Name)
}

// TestApplyRemoteSkipsDirtyRows verifies pulled rows never clobber unpushed local edits.
func TestApplyRemoteSkipsDirtyRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	remoteAt := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, exerciseRecord(t, "ex-1", "u1", "Local", time.Time{})))

	n, err := s.ApplyRemote(ctx, []entity.Record{
		exerciseRecord(t, "ex-1", "u1", "Remote", remoteAt),
		exerciseRecord(t, "ex-2", "u1", "New", remoteAt),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, entity.KindExercise, "ex-1")
	require.NoError(t, err)
	ex, err := entity.Decode[models.Exercise](*got)
	require.NoError(t, err)
	assert.Equal(t, "Local", ex.Name)

	got, err = s.Get(ctx, entity.KindExercise, "ex-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.UpdatedAt.Equal(remoteAt), "remote updatedAt is kept verbatim")

	pending, err := s.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, pending, 1, "applied rows are not pending")
}

// TestApplyRemoteAchievementFirstWriteWins verifies an existing achievement is not replaced.
func TestApplyRemoteAchievementFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	encode := func(unlocked time.Time) entity.Record {
		rec, err := entity.Encode(entity.KindAchievement, "u1", &models.Achievement{
			SyncMeta:   models.SyncMeta{ID: "ach-1"},
			Code:       "first_workout",
			UnlockedAt: unlocked,
		}, unlocked)
		require.NoError(t, err)
		return rec
	}

	_, err := s.ApplyRemote(ctx, []entity.Record{encode(first)})
	require.NoError(t, err)
	n, err := s.ApplyRemote(ctx, []entity.Record{encode(first.Add(48 * time.Hour))})
	require.NoError(t, err)
	assert.Zero(t, n)

	achs, err := s.For("u1").Achievements(ctx)
	require.NoError(t, err)
	require.Len(t, achs, 1)
	assert.True(t, achs[0].UnlockedAt.Equal(first))
}

// TestUpsertDoesNotCrossUsers verifies an id owned by another user is left untouched.
func TestUpsertDoesNotCrossUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	ok, err := s.Upsert(ctx, exerciseRecord(t, "ex-1", "u1", "Mine", at), entity.Overwrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Upsert(ctx, exerciseRecord(t, "ex-1", "u2", "Theirs", at), entity.Overwrite)
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := s.List(ctx, "u2", entity.KindExercise, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

// TestListSince verifies the watermark filter is inclusive.
func TestListSince(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	_, err := s.Upsert(ctx, exerciseRecord(t, "old", "u1", "Old", t1), entity.Overwrite)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, exerciseRecord(t, "new", "u1", "New", t2), entity.Overwrite)
	require.NoError(t, err)

	recs, err := s.List(ctx, "u1", entity.KindExercise, &t2)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].ID)

	recs, err = s.List(ctx, "u1", entity.KindExercise, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

// TestCursorRoundTrip verifies the sync cursor upsert.
func TestCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Cursor(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, c)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutCursor(ctx, models.SyncCursor{UserID: "u1", DeviceID: "d1", LastSyncedAt: at}))
	require.NoError(t, s.PutCursor(ctx, models.SyncCursor{UserID: "u1", DeviceID: "d2", LastSyncedAt: at.Add(time.Minute)}))

	c, err = s.Cursor(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "d2", c.DeviceID)
	assert.True(t, c.LastSyncedAt.Equal(at.Add(time.Minute)))
}
