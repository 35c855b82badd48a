package mcp

import (
	"context"

	"github.com/meltforce/ironlog/internal/devicestore"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/progression"
)

// DataSource abstracts the device history read by MCP tools and resources.
type DataSource interface {
	ExerciseByName(ctx context.Context, name string) (*models.Exercise, error)
	Exercises(ctx context.Context) ([]models.Exercise, error)
	TrainingDays(ctx context.Context) ([]models.TrainingDay, error)
	RecentCompletedLogs(ctx context.Context, limit int) ([]models.WorkoutLog, error)
	PersonalRecords(ctx context.Context, exerciseID string) ([]models.PersonalRecord, error)
}

// Advisor produces weight suggestions.
type Advisor interface {
	DaySuggestion(ctx context.Context, exerciseID, dayID string, setNumber int) (*progression.DaySuggestion, error)
	GlobalSuggestion(ctx context.Context, exerciseID string) (*progression.GlobalSuggestion, error)
}

// Compile-time checks.
var (
	_ DataSource = (*devicestore.History)(nil)
	_ Advisor    = (*progression.Advisor)(nil)
)
