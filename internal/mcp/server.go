// Package mcp exposes the device's training history and progression advice to
// MCP clients over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, advisor Advisor, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("ironlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("ironlog strength training log. Query recent workouts, personal records and weight suggestions. Exercises may be referenced by id or by name."),
	)

	h := &handlers{ds: ds, advisor: advisor, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetDaySuggestion, Handler: h.getDaySuggestion},
		server.ServerTool{Tool: toolGetExerciseSuggestion, Handler: h.getExerciseSuggestion},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetRecentWorkouts, Handler: h.getRecentWorkouts},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resTrainingDays, Handler: h.trainingDays},
		server.ServerResource{Resource: resExercises, Handler: h.exercises},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	advisor Advisor
	log     *slog.Logger
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"ironlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Completed workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTrainingDays = mcp.NewResource(
	"ironlog://training_days",
	"Training Days",
	mcp.WithResourceDescription("Planned training days with their supersets and warm-up/finisher checklists"),
	mcp.WithMIMEType("application/json"),
)

var resExercises = mcp.NewResource(
	"ironlog://exercises",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises with ids, equipment and muscle groups"),
	mcp.WithMIMEType("application/json"),
)
