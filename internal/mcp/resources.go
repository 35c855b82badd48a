package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/ironlog/internal/models"
)

// recentWindow is the look-back of the recent_workouts resource.
const recentWindow = 14 * 24 * time.Hour

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	logs, err := h.ds.RecentCompletedLogs(ctx, 0)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-recentWindow)
	recent := []models.WorkoutLog{}
	for _, l := range logs {
		if l.CompletedAt.Before(cutoff) {
			break // newest first
		}
		recent = append(recent, l)
	}
	return jsonContents(req.Params.URI, recent)
}

func (h *handlers) trainingDays(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	days, err := h.ds.TrainingDays(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, days)
}

func (h *handlers) exercises(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, exercises)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
