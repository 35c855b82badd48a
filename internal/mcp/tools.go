package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/ironlog/internal/models"
)

const defaultRecentLimit = 10

// --- Tool definitions ---

var toolGetDaySuggestion = mcp.NewTool("get_day_suggestion",
	mcp.WithDescription("Suggest weight and reps for one set of an exercise on a training day, based on the last completed workout of that day. Weight goes up by the progression increment when the previous set met its target."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id or name")),
	mcp.WithString("day_id", mcp.Required(), mcp.Description("Training day id")),
	mcp.WithNumber("set_number", mcp.Description("1-based set number. Defaults to 1.")),
)

var toolGetExerciseSuggestion = mcp.NewTool("get_exercise_suggestion",
	mcp.WithDescription("Suggest a weight for an exercise from its most recent appearance in any workout. Includes the best set, whether it hit its target, the last set's RPE and an optional weight nudge."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id or name")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("List personal records, oldest first. Each row beat every earlier row for its exercise."),
	mcp.WithString("exercise", mcp.Description("Exercise id or name. Omit for all exercises.")),
)

var toolGetRecentWorkouts = mcp.NewTool("get_recent_workouts",
	mcp.WithDescription("List completed workouts, newest first, with every logged set."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 10.")),
)

// --- Tool handlers ---

func (h *handlers) getDaySuggestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	dayID, err := req.RequireString("day_id")
	if err != nil {
		return mcp.NewToolResultError("day_id parameter is required"), nil
	}
	setNumber := req.GetInt("set_number", 1)
	if setNumber < 1 {
		return mcp.NewToolResultError("set_number must be at least 1"), nil
	}

	exerciseID, err := h.resolveExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := h.advisor.DaySuggestion(ctx, exerciseID, dayID, setNumber)
	if err != nil {
		h.log.Error("mcp get_day_suggestion", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if s == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No completed workout of day %s logged set %d of this exercise.", dayID, setNumber)), nil
	}
	return jsonResult(s)
}

func (h *handlers) getExerciseSuggestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	exerciseID, err := h.resolveExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := h.advisor.GlobalSuggestion(ctx, exerciseID)
	if err != nil {
		h.log.Error("mcp get_exercise_suggestion", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if s == nil {
		return mcp.NewToolResultText("This exercise does not appear in any recent completed workout."), nil
	}
	return jsonResult(s)
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID := ""
	if ref := req.GetString("exercise", ""); ref != "" {
		id, err := h.resolveExercise(ctx, ref)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		exerciseID = id
	}
	prs, err := h.ds.PersonalRecords(ctx, exerciseID)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if prs == nil {
		prs = []models.PersonalRecord{}
	}
	return jsonResult(prs)
}

func (h *handlers) getRecentWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultRecentLimit)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be at least 1"), nil
	}
	logs, err := h.ds.RecentCompletedLogs(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_recent_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if logs == nil {
		logs = []models.WorkoutLog{}
	}
	return jsonResult(logs)
}

// resolveExercise accepts an exercise name and falls back to treating the
// reference as an id.
func (h *handlers) resolveExercise(ctx context.Context, ref string) (string, error) {
	ex, err := h.ds.ExerciseByName(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("looking up exercise: %w", err)
	}
	if ex != nil {
		return ex.ID, nil
	}
	return ref, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
