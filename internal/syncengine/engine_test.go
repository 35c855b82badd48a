package syncengine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/devicestore"
	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// manualClock is advanced explicitly by tests.
type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func discardLogger() *slog.Logger              { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
func openStore(t *testing.T) *devicestore.Store {
	t.Helper()
	s, err := devicestore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestEngine returns an engine over an in-memory store standing in for the shared copy.
func newTestEngine(t *testing.T) (*Engine, *devicestore.Store, *manualClock) {
	t.Helper()
	store := openStore(t)
	clock := &manualClock{now: t0}
	e := New(store, discardLogger())
	e.SetClock(clock.Now)
	return e, store, clock
}

func samplePayload() models.PushRequest {
	return models.PushRequest{
		DeviceID: "dev-1",
		Email:    "lifter@example.com",
		Data: models.SyncData{
			Exercises: []models.Exercise{
				{SyncMeta: models.SyncMeta{ID: "ex-squat"}, Name: "Squat"},
				{SyncMeta: models.SyncMeta{ID: "ex-bench"}, Name: "Bench Press"},
			},
			Settings: &models.UserSettings{
				SyncMeta:             models.SyncMeta{ID: "settings-1"},
				WeightUnit:           "kg",
				ProgressionIncrement: 2.5,
				AutoProgression:      true,
			},
			Achievements: []models.Achievement{
				{SyncMeta: models.SyncMeta{ID: "ach-1"}, Code: "first_workout", UnlockedAt: t0},
			},
		},
	}
}

// TestPushIdempotent verifies pushing the same payload twice leaves one row per id
// and only moves updatedAt forward.
func TestPushIdempotent(t *testing.T) {
	ctx := context.Background()
	e, store, clock := newTestEngine(t)

	first, err := e.Push(ctx, "u1", samplePayload())
	require.NoError(t, err)
	assert.True(t, first.Equal(t0))

	clock.Advance(time.Minute)
	second, err := e.Push(ctx, "u1", samplePayload())
	require.NoError(t, err)
	assert.True(t, second.After(first))

	exercises, err := store.List(ctx, "u1", entity.KindExercise, nil)
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	for _, r := range exercises {
		assert.True(t, r.UpdatedAt.Equal(second), "%s updatedAt = %v, want %v", r.ID, r.UpdatedAt, second)
	}

	settings, err := store.List(ctx, "u1", entity.KindSettings, nil)
	require.NoError(t, err)
	assert.Len(t, settings, 1)

	cursor, err := store.Cursor(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "dev-1", cursor.DeviceID)
	assert.True(t, cursor.LastSyncedAt.Equal(second))
}

// TestPushAchievementImmutable verifies a second push of an achievement id never changes the row.
func TestPushAchievementImmutable(t *testing.T) {
	ctx := context.Background()
	e, store, clock := newTestEngine(t)

	_, err := e.Push(ctx, "u1", samplePayload())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	later := samplePayload()
	later.Data.Achievements[0].UnlockedAt = t0.Add(72 * time.Hour)
	later.Data.Achievements[0].Title = "changed"
	_, err = e.Push(ctx, "u1", later)
	require.NoError(t, err)

	recs, err := store.List(ctx, "u1", entity.KindAchievement, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].UpdatedAt.Equal(t0), "achievement updatedAt must not advance")

	ach, err := entity.Decode[models.Achievement](recs[0])
	require.NoError(t, err)
	assert.True(t, ach.UnlockedAt.Equal(t0))
	assert.Empty(t, ach.Title)
}

// TestPushLastWriterWins verifies a later push overwrites the whole record.
func TestPushLastWriterWins(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)

	a := models.PushRequest{DeviceID: "dev-a", Data: models.SyncData{Exercises: []models.Exercise{
		{SyncMeta: models.SyncMeta{ID: "ex-1"}, Name: "Squat", Notes: "from a", Equipment: "barbell"},
	}}}
	b := models.PushRequest{DeviceID: "dev-b", Data: models.SyncData{Exercises: []models.Exercise{
		{SyncMeta: models.SyncMeta{ID: "ex-1"}, Name: "Front Squat"},
	}}}

	_, err := e.Push(ctx, "u1", a)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = e.Push(ctx, "u1", b)
	require.NoError(t, err)

	data, _, err := e.Pull(ctx, "u1", time.Time{})
	require.NoError(t, err)
	require.Len(t, data.Exercises, 1)
	assert.Equal(t, "Front Squat", data.Exercises[0].Name)
	assert.Empty(t, data.Exercises[0].Equipment, "no per-field merge")
}

// TestPullIncremental verifies watermark filtering for the large kinds and full
// results for settings, onboarding and achievements.
func TestPullIncremental(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)

	_, err := e.Push(ctx, "u1", samplePayload())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	watermark := clock.Now()
	_, err = e.Push(ctx, "u1", models.PushRequest{DeviceID: "dev-1", Data: models.SyncData{
		Exercises: []models.Exercise{{SyncMeta: models.SyncMeta{ID: "ex-deadlift"}, Name: "Deadlift"}},
		OnboardingProfile: &models.OnboardingProfile{
			SyncMeta: models.SyncMeta{ID: "onb-1"}, Goal: "strength",
		},
	}})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	data, syncedAt, err := e.Pull(ctx, "u1", watermark)
	require.NoError(t, err)
	assert.True(t, syncedAt.Equal(clock.Now()))

	for _, ex := range data.Exercises {
		assert.False(t, ex.UpdatedAt.Before(watermark), "%s updatedAt %v < since %v", ex.ID, ex.UpdatedAt, watermark)
	}
	require.Len(t, data.Exercises, 1)
	assert.Equal(t, "ex-deadlift", data.Exercises[0].ID)

	require.NotNil(t, data.Settings, "settings are always returned")
	assert.Equal(t, 2.5, data.Settings.ProgressionIncrement)
	require.NotNil(t, data.OnboardingProfile)
	assert.Len(t, data.Achievements, 1, "achievements are always returned")
	assert.NotNil(t, data.Programs, "empty kinds encode as []")

	// A watermark after every write still returns the full-fetch kinds.
	data, _, err = e.Pull(ctx, "u1", clock.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, data.Exercises)
	assert.NotNil(t, data.Settings)
	assert.Len(t, data.Achievements, 1)
}

// TestPullScopedToUser verifies one user's records never appear in another user's pull.
func TestPullScopedToUser(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	_, err := e.Push(ctx, "u1", samplePayload())
	require.NoError(t, err)

	data, _, err := e.Pull(ctx, "u2", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, data.Exercises)
	assert.Nil(t, data.Settings)
	assert.Empty(t, data.Achievements)
}

// TestEngineErrors verifies the typed failures.
func TestEngineErrors(t *testing.T) {
	ctx := context.Background()

	unconfigured := New(nil, discardLogger())
	_, err := unconfigured.Push(ctx, "u1", samplePayload())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, _, err = unconfigured.Pull(ctx, "u1", time.Time{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	e, _, _ := newTestEngine(t)
	_, err = e.Push(ctx, "", samplePayload())
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, _, err = e.Pull(ctx, "", time.Time{})
	assert.ErrorIs(t, err, ErrAuthRequired)

	bad := models.PushRequest{DeviceID: "d", Data: models.SyncData{
		Exercises: []models.Exercise{{Name: "no id"}},
	}}
	_, err = e.Push(ctx, "u1", bad)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
